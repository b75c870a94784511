package report

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkoosis/dotrep/pkg/sarif"
)

func TestCollector_RoslynReports(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	r1 := sarif.RoslynReport{Path: "p1"}
	r2 := sarif.RoslynReport{Path: "p2"}

	c.AddRoslynReports([]sarif.RoslynReport{r1})
	c.AddRoslynReports([]sarif.RoslynReport{r2})

	assert.Equal(t, []sarif.RoslynReport{r1, r2}, c.RoslynReports())
	assert.Empty(t, c.ProtobufDirs())
}

func TestCollector_ProtobufDirs(t *testing.T) {
	t.Parallel()
	c := NewCollector()

	c.AddProtobufDirs([]string{"p1"})
	c.AddProtobufDirs([]string{"p2", "./p1"})

	assert.Equal(t, []string{"p1", "p2"}, c.ProtobufDirs())
	assert.Empty(t, c.RoslynReports())
}

func TestCollector_ValueIdentity(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	c.AddRoslynReports([]sarif.RoslynReport{
		{Path: "out.sarif", Project: "A"},
		{Path: "out.sarif", Project: "A"},
		{Path: "out.sarif", Project: "B"},
	})
	assert.Equal(t, []sarif.RoslynReport{
		{Path: "out.sarif", Project: "A"},
		{Path: "out.sarif", Project: "B"},
	}, c.RoslynReports())
}

func TestCollector_Concurrent(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.AddRoslynReports([]sarif.RoslynReport{{Path: fmt.Sprintf("r%d.sarif", i%4)}})
			c.AddProtobufDirs([]string{fmt.Sprintf("dir%d", i%2)})
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.RoslynReports(), 4)
	assert.Len(t, c.ProtobufDirs(), 2)
}
