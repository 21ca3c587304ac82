package presence

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestRegistrySetName(t *testing.T) {
	tests := []struct {
		name       string
		connID     string
		setName    string
		wantChange bool
		wantRoster []string
	}{
		{
			name:       "register a name",
			connID:     "c1",
			setName:    "Alice",
			wantChange: true,
			wantRoster: []string{"Alice"},
		},
		{
			name:       "empty name is absorbed",
			connID:     "c1",
			setName:    "",
			wantChange: false,
			wantRoster: []string{},
		},
		{
			name:       "whitespace name is absorbed",
			connID:     "c1",
			setName:    "   ",
			wantChange: false,
			wantRoster: []string{},
		},
		{
			name:       "name is trimmed",
			connID:     "c1",
			setName:    "  Alice  ",
			wantChange: true,
			wantRoster: []string{"Alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if got := r.SetName(tt.connID, tt.setName); got != tt.wantChange {
				t.Errorf("SetName() = %v, want %v", got, tt.wantChange)
			}
			if got := r.Roster(); !reflect.DeepEqual(got, tt.wantRoster) {
				t.Errorf("Roster() = %v, want %v", got, tt.wantRoster)
			}
		})
	}
}

func TestRegistryRename(t *testing.T) {
	r := NewRegistry()
	r.SetName("c1", "Alice")
	r.SetName("c2", "Bob")

	// Renaming keeps the original roster position.
	if !r.SetName("c1", "Alicia") {
		t.Fatal("rename should report a change")
	}

	want := []string{"Alicia", "Bob"}
	if got := r.Roster(); !reflect.DeepEqual(got, want) {
		t.Errorf("Roster() = %v, want %v", got, want)
	}
	if got := r.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestRegistryDuplicateNames(t *testing.T) {
	r := NewRegistry()
	r.SetName("c1", "Alice")
	r.SetName("c2", "Alice")

	want := []string{"Alice", "Alice"}
	if got := r.Roster(); !reflect.DeepEqual(got, want) {
		t.Errorf("Roster() = %v, want %v", got, want)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.SetName("c1", "Alice")
	r.SetName("c2", "Bob")
	r.SetName("c3", "Carol")

	if !r.Remove("c2") {
		t.Fatal("Remove should report an existing entry")
	}
	if r.Remove("c2") {
		t.Fatal("second Remove should report no entry")
	}
	if r.Remove("never-registered") {
		t.Fatal("Remove of unknown connection should report no entry")
	}

	want := []string{"Alice", "Carol"}
	if got := r.Roster(); !reflect.DeepEqual(got, want) {
		t.Errorf("Roster() = %v, want %v", got, want)
	}
}

func TestRegistryAnnounceOrder(t *testing.T) {
	r := NewRegistry()
	r.SetName("c1", "Alice")
	r.SetName("c2", "Bob")
	r.Remove("c1")
	r.SetName("c1", "Alice")

	// Re-announcing after removal goes to the back of the roster.
	want := []string{"Bob", "Alice"}
	if got := r.Roster(); !reflect.DeepEqual(got, want) {
		t.Errorf("Roster() = %v, want %v", got, want)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", n)
			r.SetName(id, fmt.Sprintf("user-%d", n))
			r.Roster()
			if n%2 == 0 {
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	if got := r.Count(); got != 25 {
		t.Errorf("Count() = %d, want 25", got)
	}
}
