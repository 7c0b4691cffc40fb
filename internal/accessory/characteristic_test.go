package accessory

import (
	"errors"
	"testing"
)

func TestCharacteristic_UpdateValueNotifiesObservers(t *testing.T) {
	c := newCharacteristic(CharCurrentTemperature)

	var seen []any
	cancel := c.Observe(func(v any) { seen = append(seen, v) })

	c.UpdateValue(21.5)
	cancel()
	cancel()
	c.UpdateValue(22.0)

	if len(seen) != 1 || seen[0] != 21.5 {
		t.Errorf("observed %v, want [21.5]", seen)
	}
	if got, ok := c.Float(); !ok || got != 22.0 {
		t.Errorf("Float() = %v, %v, want 22", got, ok)
	}
}

func TestCharacteristic_Set(t *testing.T) {
	t.Run("read-only", func(t *testing.T) {
		c := newCharacteristic(CharCurrentTemperature)
		if err := c.Set(1.0); !errors.Is(err, ErrReadOnly) {
			t.Errorf("Set() error = %v, want ErrReadOnly", err)
		}
		if c.Writable() {
			t.Error("Writable() = true without handler")
		}
	})

	t.Run("stores written value", func(t *testing.T) {
		c := newCharacteristic(CharTargetTemperature)
		var got any
		c.OnSet(func(v any) error { got = v; return nil })

		if err := c.Set(24.0); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if got != 24.0 || c.Value() != 24.0 {
			t.Errorf("handler got %v, value %v, want 24", got, c.Value())
		}
	})

	t.Run("handler error keeps value", func(t *testing.T) {
		c := newCharacteristic(CharTargetHeatingCoolingState)
		c.UpdateValue(1)
		boom := errors.New("boom")
		c.OnSet(func(any) error { return boom })

		if err := c.Set(2); !errors.Is(err, boom) {
			t.Errorf("Set() error = %v, want boom", err)
		}
		if c.Value() != 1 {
			t.Errorf("Value() = %v, want 1", c.Value())
		}
	})

	t.Run("handler update wins", func(t *testing.T) {
		c := newCharacteristic(CharTargetHeatingCoolingState)
		c.OnSet(func(any) error {
			c.UpdateValue(3)
			return nil
		})

		if err := c.Set(1); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if c.Value() != 3 {
			t.Errorf("Value() = %v, want 3 from handler", c.Value())
		}
	})

	t.Run("does not notify observers", func(t *testing.T) {
		c := newCharacteristic(CharMute)
		c.OnSet(func(any) error { return nil })
		notified := false
		c.Observe(func(any) { notified = true })

		if err := c.Set(true); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if notified {
			t.Error("observer notified on controller write")
		}
	})
}

func TestCharacteristic_OnSetReplacesHandler(t *testing.T) {
	c := newCharacteristic(CharRemoteKey)
	var first, second int
	c.OnSet(func(any) error { first++; return nil })
	c.OnSet(func(any) error { second++; return nil })

	if err := c.Set(4); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if first != 0 || second != 1 {
		t.Errorf("handler calls = (%d, %d), want (0, 1)", first, second)
	}
}

func TestCharacteristic_Props(t *testing.T) {
	c := newCharacteristic(CharTargetTemperature)
	c.SetProps(Props{Min: Ptr(16), Max: Ptr(32), Step: Ptr(1)})

	p := c.Props()
	if p.Min == nil || *p.Min != 16 || *p.Max != 32 || *p.Step != 1 {
		t.Errorf("Props() = %+v", p)
	}
}

func TestFloatAndInt(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{1.5, 1.5, true},
		{float32(2), 2, true},
		{3, 3, true},
		{int64(4), 4, true},
		{uint8(5), 5, true},
		{true, 1, true},
		{"6", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := Float(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Float(%v) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}

	if n, ok := Int(75.9); !ok || n != 75 {
		t.Errorf("Int(75.9) = %d, %v, want 75", n, ok)
	}
}
