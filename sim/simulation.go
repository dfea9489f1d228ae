package sim

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lab1702/oort-sim/determinism"
	"github.com/lab1702/oort-sim/entity"
	"github.com/lab1702/oort-sim/physics"
	"github.com/lab1702/oort-sim/radar"
	"github.com/lab1702/oort-sim/radio"
	"github.com/lab1702/oort-sim/sandbox"
	"github.com/lab1702/oort-sim/scenario"
	"github.com/lab1702/oort-sim/ship"
	"github.com/lab1702/oort-sim/snapshot"
)

// WorldHalfSize is half the world's side length: the axis-aligned wall
// boundary every body bounces against.
const WorldHalfSize = 50_000.0

// pendingSpawn is a scenario- or launcher-produced ship awaiting
// admission next tick.
type pendingSpawn struct {
	class    ship.Class
	variant  int
	team     int
	position physics.Vec2
	velocity physics.Vec2
	heading  float64
}

// Simulation is the scheduler's owning type: the rigid-body world,
// entity tables, event buffers, and team controllers, advanced one
// fixed Δt at a time by Step.
type Simulation struct {
	ID   uuid.UUID
	Seed uint64
	Tick uint32

	Def         scenario.Definition
	masterRNG   *rand.Rand
	physWorld   *physics.World
	world       *World
	controllers map[int]*sandbox.TeamController
	codes       map[int][]byte

	Status     scenario.Status
	WinnerTeam int

	Events Events

	pendingSpawns      []pendingSpawn
	pendingRadioSends  []radio.Transmission
	radioDeliveredTick int
	lastTiming         snapshot.Timing
}

// New constructs a Simulation from a scenario definition, seed, and
// per-team controller code.
func New(def scenario.Definition, seed uint64, codes map[int][]byte) *Simulation {
	s := &Simulation{
		ID:          uuid.New(),
		Seed:        seed,
		Def:         def,
		masterRNG:   determinism.MasterRNG(seed),
		physWorld:   physics.NewWorld(WorldHalfSize),
		world:       NewWorld(),
		controllers: make(map[int]*sandbox.TeamController),
		codes:       codes,
	}
	if def.Init != nil {
		for _, sp := range def.Init(seed) {
			s.admitNow(sp.Team, sp.Class, sp.Variant, physics.Vec2{X: sp.X, Y: sp.Y}, physics.Vec2{X: sp.VX, Y: sp.VY}, sp.Heading)
		}
	}
	return s
}

// admitNow creates a ship immediately (used for scenario initialization
// only; in-run spawns go through the pendingSpawns queue admitted next
// tick).
func (s *Simulation) admitNow(team int, class ship.Class, variant int, pos, vel physics.Vec2, heading float64) entity.ShipHandle {
	data := ship.Build(class, variant, team)
	handle, _ := s.world.Ships.Insert(nil)
	sh := ship.NewShip(handle, team, data, variant)
	body := physics.Body{
		Position: pos, LinVel: vel, Heading: physics.NormalizeAngle(heading),
		Collider: sh.Collider, Restitution: data.Restitution, Mass: 1,
	}
	s.world.Ships.Set(handle, &ShipEntity{Ship: sh, Body: body, JustAdmitted: true})
	return handle
}

// Step advances the simulation by one fixed Δt, running the eleven
// phases in a fixed order, timing the physics/radar/controller phases
// for Snapshot's Timing field.
func (s *Simulation) Step() error {
	totalStart := time.Now()

	s.Events.Clear() // phase 1

	s.admitPendingShips() // phase 2

	physicsStart := time.Now()
	for _, h := range s.world.Ships.Handles() { // phase 3
		e := s.world.Ships.GetPtr(h)
		if e == nil || *e == nil {
			continue
		}
		s.physWorld.Integrate(&(*e).Body)
	}

	s.resolveCollisions() // phase 4
	physicsNanos := time.Since(physicsStart).Nanoseconds()

	radarStart := time.Now()
	s.evaluateRadar() // phase 5
	radarNanos := time.Since(radarStart).Nanoseconds()

	s.deliverRadio() // phase 6

	controllerStart := time.Now()
	s.tickControllers() // phase 7
	controllerNanos := time.Since(controllerStart).Nanoseconds()

	s.tickShipSubsystems() // phase 8

	bulletStart := time.Now()
	s.stepBullets() // phase 9
	physicsNanos += time.Since(bulletStart).Nanoseconds()

	s.tickScenario() // phase 10

	s.Tick++ // phase 11

	s.lastTiming = snapshot.Timing{
		TotalNanos:      time.Since(totalStart).Nanoseconds(),
		PhysicsNanos:    physicsNanos,
		ControllerNanos: controllerNanos,
		RadarNanos:      radarNanos,
	}
	return nil
}

func (s *Simulation) admitPendingShips() {
	pending := s.pendingSpawns
	s.pendingSpawns = nil
	for _, p := range pending {
		s.admitNow(p.team, p.class, p.variant, p.position, p.velocity, p.heading)
	}
}

func (s *Simulation) resolveCollisions() {
	handles := s.world.Ships.Handles()
	for i := 0; i < len(handles); i++ {
		a := s.world.Ships.GetPtr(handles[i])
		if a == nil || *a == nil || (*a).Ship.Destroyed {
			continue
		}
		for j := i + 1; j < len(handles); j++ {
			b := s.world.Ships.GetPtr(handles[j])
			if b == nil || *b == nil || (*b).Ship.Destroyed {
				continue
			}
			if !physics.ShipsOverlap((*a).Body, (*b).Body) {
				continue
			}
			if (*a).Ship.Team == (*b).Ship.Team {
				continue
			}
			physics.ResolveBounce(&(*a).Body, &(*b).Body)
			rngA := determinism.TickRNG(s.Seed, s.Tick^uint64Lo(handles[i].Raw()))
			rngB := determinism.TickRNG(s.Seed, s.Tick^uint64Lo(handles[j].Raw()))
			s.applyExplosion((*a).Ship.HandleCollision((*a).Body.Position, (*a).Body.LinVel, (*a).Body.Heading, rngA), (*a).Body.Position, (*a).Body.LinVel)
			s.applyExplosion((*b).Ship.HandleCollision((*b).Body.Position, (*b).Body.LinVel, (*b).Body.Heading, rngB), (*b).Body.Position, (*b).Body.LinVel)
		}
	}

	bulletHandles := s.world.Bullets.Handles()
	for _, bh := range bulletHandles {
		be := s.world.Bullets.GetPtr(bh)
		if be == nil || *be == nil {
			continue
		}
		for _, sh := range handles {
			se := s.world.Ships.GetPtr(sh)
			if se == nil || *se == nil || (*se).Ship.Destroyed {
				continue
			}
			if (*se).Ship.Team == (*be).Team {
				continue // same-team bullets pass through: no damage, and the bullet is not removed
			}
			if !physics.BulletHitsShip((*be).Bullet, (*se).Body) {
				continue
			}
			damage := (*be).Mass * 1000
			if (*se).Ship.ShieldActive() {
				damage = 0 // Shield deflects incoming projectile damage
			}
			(*se).Ship.Health -= damage
			s.world.Bullets.Remove(bh)
			if (*se).Ship.Class == ship.ClassMissile || (*se).Ship.Class == ship.ClassTorpedo {
				rng := determinism.TickRNG(s.Seed, s.Tick^uint64Lo(sh.Raw()))
				s.applyExplosion((*se).Ship.HandleCollision((*se).Body.Position, (*se).Body.LinVel, (*se).Body.Heading, rng), (*se).Body.Position, (*se).Body.LinVel)
			}
			break
		}
	}
}

// applyExplosion applies an explosion's fragment burst the same way
// applyFragments does, additionally recording a renderer-only particle
// flash at the blast origin when the hook actually produced fragments
// (HandleCollision is a no-op for most classes, so an empty frags means
// no explosion happened).
func (s *Simulation) applyExplosion(frags []ship.FragmentRequest, position, velocity physics.Vec2) {
	if len(frags) > 0 {
		s.Events.Particles = append(s.Events.Particles, ParticleEvent{
			Position: position, Velocity: velocity,
			Color: [4]float32{1.0, 0.6, 0.1, 1.0}, Lifetime: 0.5,
		})
	}
	s.applyFragments(frags)
}

func (s *Simulation) applyFragments(frags []ship.FragmentRequest) {
	for _, f := range frags {
		handle, _ := s.world.Bullets.Insert(nil)
		alpha := float32(ship.BulletColorAlpha(f.Mass))
		s.world.Bullets.Set(handle, &BulletEntity{
			Bullet: physics.Bullet{Position: f.Position, Velocity: f.Velocity, Prev: f.Position},
			Team:   f.Team, Mass: f.Mass, TTL: f.TTL,
			Color: [4]float32{0.5, 0.5, 0.5, alpha},
		})
	}
}

func (s *Simulation) evaluateRadar() {
	handles := s.world.Ships.Handles()
	radarReflectors := make(map[int]radar.Reflector)
	entries := make([]radar.Entry, 0, len(handles))
	for i, h := range handles {
		e := s.world.Ships.GetPtr(h)
		if e == nil || *e == nil {
			continue
		}
		cls, cross := (*e).Ship.EffectiveRadarPresentation()
		radarReflectors[i] = radar.Reflector{
			ShipID: i, Team: (*e).Ship.Team, Class: cls, CrossSection: cross,
			Position: (*e).Body.Position, Velocity: (*e).Body.LinVel,
		}
		entries = append(entries, radar.Entry{ID: i, Center: (*e).Body.Position, Radius: (*e).Ship.Collider.Radius})
	}
	idx := radar.NewIndex(entries, 2000)
	tickRNG := determinism.TickRNG(s.Seed, s.Tick)

	for i, h := range handles {
		e := s.world.Ships.GetPtr(h)
		if e == nil || *e == nil || (*e).Ship.Radar == nil {
			continue
		}
		em := radar.Emitter{
			ShipID: i, Team: (*e).Ship.Team, Position: (*e).Body.Position, Heading: (*e).Ship.Radar.Spec.Heading,
			Spec: (*e).Ship.Radar.Spec,
		}
		outcome := radar.Evaluate(em, idx, radarReflectors, tickRNG, false)
		(*e).Ship.Radar.LastScan = outcome.Detected
	}
}

func (s *Simulation) deliverRadio() {
	handles := s.world.Ships.Handles()
	sends := s.pendingRadioSends
	s.pendingRadioSends = nil
	s.radioDeliveredTick = 0

	txByChannel := make(map[int][]radio.Transmission)
	for _, tx := range sends {
		txByChannel[tx.Channel] = append(txByChannel[tx.Channel], tx)
	}

	for ch := 0; ch < radio.Channels; ch++ {
		var receivers []radio.Receiver
		for i, h := range handles {
			e := s.world.Ships.GetPtr(h)
			if e == nil || *e == nil || (*e).Ship.Radio == nil || (*e).Ship.Radio.Channel != ch {
				continue
			}
			receivers = append(receivers, radio.Receiver{
				ID: i, Position: (*e).Body.Position,
				RxCrossSection: (*e).Ship.Radio.Spec.RxCrossSection, MinRSSI: (*e).Ship.Radio.Spec.MinRSSI,
			})
		}
		deliveries := radio.Deliver(txByChannel[ch], receivers)
		for _, d := range deliveries {
			e := s.world.Ships.GetPtr(handles[d.ReceiverID])
			if e == nil || *e == nil || (*e).Ship.Radio == nil {
				continue
			}
			payload := d.Payload
			(*e).Ship.Radio.PendingReceive = &payload
			s.radioDeliveredTick++
		}
	}
}

// RadioMessagesDelivered returns the number of radio deliveries resolved
// by the most recent deliverRadio phase.
func (s *Simulation) RadioMessagesDelivered() int {
	return s.radioDeliveredTick
}

func (s *Simulation) tickControllers() {
	handles := s.world.Ships.Handles()
	teams := make(map[int][]entity.ShipHandle)
	for _, h := range handles {
		e := s.world.Ships.GetPtr(h)
		if e == nil || *e == nil {
			continue
		}
		teams[(*e).Ship.Team] = append(teams[(*e).Ship.Team], h)
	}
	teamIDs := make([]int, 0, len(teams))
	for t := range teams {
		teamIDs = append(teamIDs, t)
	}
	sort.Ints(teamIDs) // ascending team-id order, for determinism

	for _, team := range teamIDs {
		code, ok := s.codes[team]
		hs := teams[team]
		sort.Slice(hs, func(i, j int) bool { return hs[i].Raw() < hs[j].Raw() })
		for _, h := range hs {
			e := s.world.Ships.GetPtr(h)
			if e == nil || *e == nil || (*e).Ship.Destroyed || (*e).JustAdmitted {
				continue
			}
			if !ok || code == nil {
				continue // ships with no controller run with zero actuators
			}
			s.tickOneController(team, h, code)
		}
	}
	// Clear the admission marker now that this tick's controller pass
	// has run (or deliberately skipped) every ship.
	for _, h := range handles {
		e := s.world.Ships.GetPtr(h)
		if e != nil && *e != nil {
			(*e).JustAdmitted = false
		}
	}
}

func (s *Simulation) tickOneController(team int, h entity.ShipHandle, code []byte) {
	e := s.world.Ships.GetPtr(h)
	if e == nil || *e == nil {
		return
	}
	tc, ok := s.controllers[team]
	if !ok {
		tc = sandbox.NewTeamController(team, code)
		s.controllers[team] = tc
	}
	vm, slot, err := tc.AssignVM(int32(h.Slot))
	if err != nil {
		s.Events.Errors = append(s.Events.Errors, ControllerError{Handle: h, Kind: ErrControllerCompile, Detail: err.Error()})
		return
	}

	sh := (*e).Ship
	body := (*e).Body
	seed := determinism.ShipSeed(s.Seed, h.Raw())

	var radioIn [8]*[4]float64
	var radioCh [8]int
	for i := range radioIn {
		radioCh[i] = i
	}
	if sh.Radio != nil {
		radioIn[sh.Radio.Channel] = sh.Radio.PendingReceive
	}

	sandbox.Publish(vm, sandbox.TickInputs{
		Tick: s.Tick, Seed: seed, Class: sh.Class,
		Position: body.Position, Velocity: body.LinVel, Heading: body.Heading, AngularVel: body.AngVel,
		MaxForward: sh.MaxForwardAcceleration, MaxBackward: sh.MaxBackwardAcceleration,
		MaxLateral: sh.MaxLateralAcceleration, MaxAngular: sh.MaxAngularAcceleration,
		RadarContact:  radarContact(sh),
		RadarHeading:  radarHeading(sh), RadarWidth: radarWidth(sh),
		RadarMinDist:  radarMinDist(sh), RadarMaxDist: radarMaxDist(sh),
		RadioReceived: radioIn, RadioChannels: radioCh,
	})

	if err := vm.TickShip(slot); err != nil {
		s.Events.Errors = append(s.Events.Errors, ControllerError{Handle: h, Kind: ErrControllerRuntime, Detail: err.Error()})
		return // actuators remain at their defaults (zero)
	}

	act := sandbox.Read(vm)
	sh.Accelerate(act.ForwardAccel, act.LateralAccel)
	sh.Torque(act.Angular)
	if sh.Radar != nil {
		sh.Radar.Spec.Heading = physics.NormalizeAngle(act.RadarHeading)
		sh.Radar.Spec.Width = act.RadarWidth
	}
	for gi := 0; gi < len(sh.Guns) && gi < 4; gi++ {
		sh.Aim(gi, act.GunAim[gi])
		if act.GunFire[gi] {
			sh.RequestFire(gi, body.Heading)
		}
	}
	for li := 0; li < len(sh.Launchers); li++ {
		idx := len(sh.Guns) + li
		if idx < 4 && act.GunFire[idx] {
			if spawn := sh.FireLauncher(li, body.Position, body.LinVel, body.Heading); spawn != nil {
				s.pendingSpawns = append(s.pendingSpawns, pendingSpawn{
					class: spawn.Class, variant: spawn.Variant, team: spawn.Team,
					position: spawn.Position, velocity: spawn.Velocity, heading: spawn.Heading,
				})
			}
		}
	}
	if act.AbilityActivate != ship.AbilityNone {
		sh.ActivateAbility(act.AbilityActivate)
	}
	if act.Explode {
		rng := determinism.TickRNG(s.Seed, s.Tick^uint64Lo(h.Raw()))
		s.applyExplosion(sh.Explode(body.Position, body.LinVel, body.Heading, rng), body.Position, body.LinVel)
	}
	if sh.Radio != nil {
		for i, grp := range act.RadioOut {
			if grp.Send {
				s.pendingRadioSends = append(s.pendingRadioSends, radio.Transmission{
					Channel: i, SenderID: int(h.Slot), SenderHandle: h.Raw(), Position: body.Position,
					Power: sh.Radio.Spec.Power, Payload: grp.Payload,
				})
			}
		}
	}
	for _, line := range act.DebugLines {
		s.Events.DebugLines = append(s.Events.DebugLines, DebugLineEvent{Handle: h, Line: line})
	}
	if len(act.DebugText) > 0 {
		s.Events.DebugTexts = append(s.Events.DebugTexts, DebugTextEvent{Handle: h, Text: string(act.DebugText)})
	}
	if len(act.DrawnText) > 0 {
		s.Events.DrawnTexts = append(s.Events.DrawnTexts, DebugTextEvent{Handle: h, Text: string(act.DrawnText)})
	}
}

func (s *Simulation) tickShipSubsystems() {
	for _, h := range s.world.Ships.Handles() {
		e := s.world.Ships.GetPtr(h)
		if e == nil || *e == nil {
			continue
		}
		sh, body := (*e).Ship, &(*e).Body

		rng := determinism.TickRNG(s.Seed, s.Tick^uint64Lo(h.Raw()))
		bullets := sh.FireGuns(body.Position, body.LinVel, body.Heading, rng)
		s.applyFragments(bullets)

		ttlExpired := sh.TickTimers()

		physics.ApplyBodyFrameAccel(body, sh.PendingLinearAccel, sh.PendingAngularAccel)
		if sh.IsAbilityActive(ship.AbilityBoost) {
			physics.ApplyBoost(body, 100.0)
		}
		sh.PendingLinearAccel = physics.Vec2{}
		sh.PendingAngularAccel = 0

		if ttlExpired {
			s.applyExplosion(sh.Explode(body.Position, body.LinVel, body.Heading, rng), body.Position, body.LinVel)
		}
		if sh.Health <= 0 {
			sh.Destroyed = true
		}
		if sh.Destroyed {
			if tc, ok := s.controllers[sh.Team]; ok {
				if vm, slot, err := tc.AssignVM(int32(h.Slot)); err == nil {
					_ = vm.DeleteShip(slot)
				}
				tc.Forget(h.Slot)
			}
			s.world.Ships.Remove(h)
		}
	}
}

func (s *Simulation) stepBullets() {
	for _, h := range s.world.Bullets.Handles() {
		e := s.world.Bullets.GetPtr(h)
		if e == nil || *e == nil {
			continue
		}
		sunk := s.physWorld.IntegrateBullet(&(*e).Bullet)
		(*e).TTL -= physics.Dt
		if sunk || (*e).TTL <= 0 {
			s.world.Bullets.Remove(h)
		}
	}
}

func (s *Simulation) tickScenario() {
	if s.Def.TickHook != nil {
		for _, sp := range s.Def.TickHook(s.Tick, s.Seed) {
			s.pendingSpawns = append(s.pendingSpawns, pendingSpawn{
				class: sp.Class, variant: sp.Variant, team: sp.Team,
				position: physics.Vec2{X: sp.X, Y: sp.Y}, velocity: physics.Vec2{X: sp.VX, Y: sp.VY}, heading: sp.Heading,
			})
		}
	}
	info := s.survivorInfo()
	status, team := scenario.Evaluate(s.Def, info)
	s.Status = status
	s.WinnerTeam = team
}

func (s *Simulation) survivorInfo() scenario.SurvivorInfo {
	combatants := make(map[int]int)
	any := make(map[int]int)
	for _, h := range s.world.Ships.Handles() {
		e := s.world.Ships.GetPtr(h)
		if e == nil || *e == nil {
			continue
		}
		sh := (*e).Ship
		switch sh.Class {
		case ship.ClassMissile, ship.ClassTorpedo, ship.ClassAsteroid:
		default:
			any[sh.Team]++
		}
		switch sh.Class {
		case ship.ClassFighter, ship.ClassFrigate, ship.ClassCruiser:
			combatants[sh.Team]++
		}
	}
	return scenario.SurvivorInfo{CombatantsByTeam: combatants, AnyByTeam: any, Tick: s.Tick}
}

// Hash returns a 64-bit digest over a fixed-order traversal of ships
// and bullets by ascending handle.
func (s *Simulation) Hash() uint64 {
	h := determinism.NewHasher()
	handles := s.world.Ships.Handles()
	sort.Slice(handles, func(i, j int) bool { return handles[i].Raw() < handles[j].Raw() })
	for _, hd := range handles {
		e := s.world.Ships.GetPtr(hd)
		if e == nil || *e == nil {
			continue
		}
		h.WriteFloat((*e).Body.Position.X)
		h.WriteFloat((*e).Body.Position.Y)
		h.WriteFloat((*e).Body.Heading)
		h.WriteFloat((*e).Body.LinVel.X)
		h.WriteFloat((*e).Body.LinVel.Y)
		h.WriteFloat((*e).Ship.Health)
	}
	bhandles := s.world.Bullets.Handles()
	sort.Slice(bhandles, func(i, j int) bool { return bhandles[i].Raw() < bhandles[j].Raw() })
	for _, bh := range bhandles {
		e := s.world.Bullets.GetPtr(bh)
		if e == nil || *e == nil {
			continue
		}
		h.WriteFloat((*e).Bullet.Position.X)
		h.WriteFloat((*e).Bullet.Position.Y)
		h.WriteFloat((*e).Bullet.Velocity.X)
		h.WriteFloat((*e).Bullet.Velocity.Y)
	}
	return h.Sum64()
}

// Snapshot builds the immutable per-tick world view from the current
// live ships/bullets and this tick's event buffer.
func (s *Simulation) Snapshot() snapshot.Snapshot {
	tickTime := float64(s.Tick) * physics.Dt
	scoreTime := tickTime
	if s.Def.ScoreTime != nil {
		scoreTime = s.Def.ScoreTime(s.Tick, s.survivorInfo())
	}
	snap := snapshot.Snapshot{
		Tick:       s.Tick,
		TickTime:   tickTime,
		ScoreTime:  scoreTime,
		Status:     s.Status,
		WinnerTeam: s.WinnerTeam,
		Timing:     s.lastTiming,
	}

	if s.Def.Lines != nil {
		for _, ln := range s.Def.Lines(s.Tick) {
			snap.OverlayLines = append(snap.OverlayLines, snapshot.DebugLine{
				X0: ln.X0, Y0: ln.Y0, X1: ln.X1, Y1: ln.Y1, RGB: ln.RGB,
			})
		}
	}

	handles := s.world.Ships.Handles()
	snap.Ships = make([]snapshot.ShipView, 0, len(handles))
	for _, h := range handles {
		e := s.world.Ships.GetPtr(h)
		if e == nil || *e == nil {
			continue
		}
		sh, body := (*e).Ship, (*e).Body
		view := snapshot.ShipView{
			ID: h.Raw(), Position: body.Position, Velocity: body.LinVel,
			Heading: body.Heading, AngularVelocity: body.AngVel,
			Team: sh.Team, Class: sh.Class, Health: sh.Health,
		}
		for _, a := range sh.Abilities {
			if a.Active() {
				view.ActiveAbilities = append(view.ActiveAbilities, a.Spec.Kind)
			}
		}
		snap.Ships = append(snap.Ships, view)
	}

	bhandles := s.world.Bullets.Handles()
	snap.Bullets = make([]snapshot.BulletView, 0, len(bhandles))
	for _, bh := range bhandles {
		e := s.world.Bullets.GetPtr(bh)
		if e == nil || *e == nil {
			continue
		}
		snap.Bullets = append(snap.Bullets, snapshot.BulletView{
			Position: (*e).Bullet.Position, Velocity: (*e).Bullet.Velocity,
			Color: (*e).Color, TTL: (*e).TTL,
		})
	}

	for _, ce := range s.Events.Errors {
		snap.Errors = append(snap.Errors, snapshot.ControllerError{
			ShipID: ce.Handle.Raw(), Kind: controllerErrorKindName(ce.Kind), Detail: ce.Detail,
		})
	}
	for _, de := range s.Events.DebugLines {
		snap.DebugLines = append(snap.DebugLines, snapshot.DebugLine{
			ShipID: de.Handle.Raw(), X0: de.Line.X0, Y0: de.Line.Y0, X1: de.Line.X1, Y1: de.Line.Y1, RGB: de.Line.RGB,
		})
	}
	for _, dt := range s.Events.DebugTexts {
		snap.DebugTexts = append(snap.DebugTexts, snapshot.DebugText{ShipID: dt.Handle.Raw(), Text: dt.Text})
	}
	for _, dt := range s.Events.DrawnTexts {
		snap.DrawnTexts = append(snap.DrawnTexts, snapshot.DebugText{ShipID: dt.Handle.Raw(), Text: dt.Text})
	}
	for _, p := range s.Events.Particles {
		snap.Particles = append(snap.Particles, snapshot.ParticleEvent{
			Position: p.Position, Velocity: p.Velocity, Color: p.Color, Lifetime: p.Lifetime,
		})
	}

	return snap
}

func controllerErrorKindName(k ControllerErrorKind) string {
	switch k {
	case ErrControllerCompile:
		return "compile"
	case ErrControllerRuntime:
		return "runtime"
	case ErrInvalidDebugPayload:
		return "invalid_debug_payload"
	default:
		return "unknown"
	}
}

// ShipCount returns the number of live ships, for metrics reporting.
func (s *Simulation) ShipCount() int {
	return s.world.Ships.Len()
}

// Close releases every team controller's VM instances.
func (s *Simulation) Close() {
	for _, tc := range s.controllers {
		tc.Close()
	}
}

func uint64Lo(v uint64) uint32 { return uint32(v) }

func radarContact(sh *ship.Ship) *ship.ScanResult {
	if sh.Radar == nil {
		return nil
	}
	return sh.Radar.LastScan
}

func radarHeading(sh *ship.Ship) float64 {
	if sh.Radar == nil {
		return 0
	}
	return sh.Radar.Spec.Heading
}

func radarWidth(sh *ship.Ship) float64 {
	if sh.Radar == nil {
		return 0
	}
	return sh.Radar.Spec.Width
}

func radarMinDist(sh *ship.Ship) float64 {
	if sh.Radar == nil {
		return 0
	}
	return sh.Radar.Spec.MinDistance
}

func radarMaxDist(sh *ship.Ship) float64 {
	if sh.Radar == nil {
		return 0
	}
	return sh.Radar.Spec.MaxDistance
}
