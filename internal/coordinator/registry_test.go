package coordinator

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	reg.Register("b", "10.0.0.2", 9000)
	reg.Register("a", "10.0.0.1", 9001)

	nodes := reg.List()
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].ID, "List is ordered by ID")
	assert.Equal(t, "b", nodes[1].ID)
	assert.Equal(t, StatusActive, nodes[0].Status)
	assert.Equal(t, 100, nodes[0].Capacity)
	assert.Equal(t, 0, nodes[0].Load)
	assert.False(t, nodes[0].LastSeen.IsZero())
}

func TestRegistryReRegisterReplaces(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", "10.0.0.1", 9000)
	require.NoError(t, reg.UpdateLoad("a", 70))
	reg.Register("a", "10.0.0.9", 9100)

	nodes := reg.List()
	require.Len(t, nodes, 1)
	assert.Equal(t, "10.0.0.9", nodes[0].Address)
	assert.Equal(t, 9100, nodes[0].Port)
	assert.Equal(t, 0, nodes[0].Load)
}

func TestRegistryUnknownNode(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Touch("ghost"))
	assert.ErrorIs(t, reg.UpdateLoad("ghost", 10), ErrUnknownNode)
	_, ok := reg.SetStatus("ghost", StatusUnhealthy)
	assert.False(t, ok)
	_, ok = reg.Get("ghost")
	assert.False(t, ok)
}

func TestRegistryActive(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", "h", 1)
	reg.Register("b", "h", 2)
	reg.SetStatus("a", StatusUnhealthy)

	active := reg.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].ID)
	assert.Len(t, reg.List(), 2)
}

func TestRegistryListIsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", "h", 1)

	nodes := reg.List()
	nodes[0].Load = 99

	n, _ := reg.Get("a")
	assert.Equal(t, 0, n.Load)
	assert.NotNil(t, NewRegistry().List())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("node-%d", i%5)
			reg.Register(id, "h", 9000+i)
			reg.Touch(id)
			_ = reg.UpdateLoad(id, i)
			reg.List()
		}(i)
	}
	wg.Wait()
	assert.Len(t, reg.List(), 5)
}
