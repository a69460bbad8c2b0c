package core

import (
	"errors"
	"sync"
	"testing"
)

func mustSchema(t *testing.T, name string) *TableSchema {
	t.Helper()
	s, err := NewTableSchema(name, []FieldDescriptor{NewField("id", "int", false)})
	if err != nil {
		t.Fatalf("NewTableSchema(%s): %v", name, err)
	}
	return s
}

func TestSchemaCatalog(t *testing.T) {
	c := NewSchemaCatalog()
	c.Put(mustSchema(t, "Orders"))
	c.PutAll([]*TableSchema{mustSchema(t, "customers"), mustSchema(t, "audit_log")})

	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}

	got, err := c.Get(" ORDERS ")
	if err != nil {
		t.Fatalf("Get(ORDERS) error: %v", err)
	}
	if got.Name != "Orders" {
		t.Errorf("Get(ORDERS).Name = %q, want Orders", got.Name)
	}

	_, err = c.Get("missing")
	if !errors.Is(err, ErrTableNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrTableNotFound", err)
	}
	if code := MapError(err).Code; code != "SCH005" {
		t.Errorf("MapError(not found).Code = %q, want SCH005", code)
	}

	var names []string
	for _, s := range c.All() {
		names = append(names, s.Name)
	}
	want := []string{"audit_log", "customers", "Orders"}
	for i := range want {
		if i >= len(names) || names[i] != want[i] {
			t.Fatalf("All() names = %v, want %v", names, want)
		}
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestSchemaCatalog_PutReplaces(t *testing.T) {
	c := NewSchemaCatalog()
	first := mustSchema(t, "t")
	second := mustSchema(t, "T")
	c.Put(first)
	c.Put(second)

	got, _ := c.Get("t")
	if got != second || c.Len() != 1 {
		t.Errorf("Put did not replace: got %p, want %p, len %d", got, second, c.Len())
	}
}

func TestSchemaCatalog_Concurrent(t *testing.T) {
	c := NewSchemaCatalog()
	s := mustSchema(t, "shared")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Put(s)
		}()
		go func() {
			defer wg.Done()
			_, _ = c.Get("shared")
			_ = c.All()
		}()
	}
	wg.Wait()

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
