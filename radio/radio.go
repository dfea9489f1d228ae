// Package radio implements the 8-channel, 4-word radio delivery model:
// per channel, the strongest signal above a receiver's floor wins,
// delivered with exactly one tick of latency.
package radio

import "github.com/lab1702/oort-sim/physics"

// Channels is the number of independent radio channels.
const Channels = 8

// Transmission is one pending send on a channel this tick.
type Transmission struct {
	Channel        int
	SenderID       int
	SenderHandle   uint64
	Position       physics.Vec2
	Power          float64
	Payload        [4]float64
}

// Receiver is one ship capable of receiving on a channel this tick.
type Receiver struct {
	ID             int
	Position       physics.Vec2
	RxCrossSection float64
	MinRSSI        float64
}

// Delivery is the resolved payload for one receiver.
type Delivery struct {
	ReceiverID int
	Payload    [4]float64
}

// Deliver resolves, for one channel, which transmission (if any) each
// receiver hears this tick: the strongest RSSI above MinRSSI, breaking
// ties by sender handle.
func Deliver(transmissions []Transmission, receivers []Receiver) []Delivery {
	var out []Delivery
	for _, r := range receivers {
		var best *Transmission
		var bestRSSI float64
		for i := range transmissions {
			tx := &transmissions[i]
			delta := tx.Position.Sub(r.Position)
			rSq := delta.LengthSq()
			if rSq == 0 {
				continue
			}
			rssi := tx.Power * r.RxCrossSection / rSq
			if rssi < r.MinRSSI {
				continue
			}
			if best == nil || rssi > bestRSSI ||
				(rssi == bestRSSI && tx.SenderHandle < best.SenderHandle) {
				best = tx
				bestRSSI = rssi
			}
		}
		if best != nil {
			out = append(out, Delivery{ReceiverID: r.ID, Payload: best.Payload})
		}
	}
	return out
}
