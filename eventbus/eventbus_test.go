package eventbus

import "testing"

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New()
	sub := b.Subscribe(1)
	b.Publish(RegisterChanged{Reg: 4, Value: 0x1234})

	select {
	case ev := <-sub:
		rc, ok := ev.(RegisterChanged)
		if !ok {
			t.Fatalf("got %T, want RegisterChanged", ev)
		}
		if rc.Reg != 4 || rc.Value != 0x1234 {
			t.Fatalf("got %+v", rc)
		}
	default:
		t.Fatal("subscriber received nothing")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	b := New()
	a := b.Subscribe(1)
	c := b.Subscribe(1)

	b.Publish(Stopped{Reason: "trap"})

	for _, sub := range []<-chan Event{a, c} {
		select {
		case ev := <-sub:
			if st, ok := ev.(Stopped); !ok || st.Reason != "trap" {
				t.Fatalf("got %+v", ev)
			}
		default:
			t.Fatal("a subscriber missed the published event")
		}
	}
}

func TestPublishDropsRatherThanBlocksOnFullSubscriber(t *testing.T) {
	b := New()
	sub := b.Subscribe(1)

	b.Publish(MemoryChanged{Addr: 1, Width: 2})
	b.Publish(MemoryChanged{Addr: 2, Width: 2}) // buffer full, must drop not block

	ev := <-sub
	mc, ok := ev.(MemoryChanged)
	if !ok || mc.Addr != 1 {
		t.Fatalf("expected the first published event to survive, got %+v", ev)
	}
}
