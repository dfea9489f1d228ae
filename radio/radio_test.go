package radio

import (
	"testing"

	"github.com/lab1702/oort-sim/physics"
)

func TestDeliverStrongestWins(t *testing.T) {
	receivers := []Receiver{{ID: 1, Position: physics.Vec2{}, RxCrossSection: 5, MinRSSI: 1e-6}}
	tx := []Transmission{
		{SenderID: 10, SenderHandle: 10, Position: physics.Vec2{X: 1000}, Power: 1e3, Payload: [4]float64{1, 2, 3, 4}},
		{SenderID: 11, SenderHandle: 11, Position: physics.Vec2{X: 100}, Power: 1e3, Payload: [4]float64{5, 6, 7, 8}},
	}
	out := Deliver(tx, receivers)
	if len(out) != 1 || out[0].Payload != [4]float64{5, 6, 7, 8} {
		t.Fatalf("expected closer (stronger) sender to win, got %+v", out)
	}
}

func TestDeliverBelowFloorIsDropped(t *testing.T) {
	receivers := []Receiver{{ID: 1, Position: physics.Vec2{}, RxCrossSection: 5, MinRSSI: 1}}
	tx := []Transmission{{SenderID: 1, SenderHandle: 1, Position: physics.Vec2{X: 1e6}, Power: 1, Payload: [4]float64{1, 1, 1, 1}}}
	out := Deliver(tx, receivers)
	if len(out) != 0 {
		t.Fatalf("expected no delivery below floor, got %+v", out)
	}
}

func TestDeliverTieBreaksBySenderHandle(t *testing.T) {
	receivers := []Receiver{{ID: 1, Position: physics.Vec2{}, RxCrossSection: 5, MinRSSI: 1e-9}}
	tx := []Transmission{
		{SenderID: 2, SenderHandle: 200, Position: physics.Vec2{X: 500}, Power: 1e3, Payload: [4]float64{9, 9, 9, 9}},
		{SenderID: 1, SenderHandle: 1, Position: physics.Vec2{X: 500}, Power: 1e3, Payload: [4]float64{1, 1, 1, 1}},
	}
	out := Deliver(tx, receivers)
	if len(out) != 1 || out[0].Payload != [4]float64{1, 1, 1, 1} {
		t.Fatalf("expected lowest sender handle to win the tie, got %+v", out)
	}
}
