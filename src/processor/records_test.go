package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRouteIsSymmetric(t *testing.T) {
	pairs := [][2]string{{"LAS", "DEN"}, {"MDW", "BWI"}, {"DAL", "HOU"}, {"SAN", "SAN"}}
	for _, p := range pairs {
		assert.Equal(t, Route(p[0], p[1]), Route(p[1], p[0]))
	}
	assert.Equal(t, "DEN-LAS", Route("LAS", "DEN"))
}

func TestDirectedRouteKeepsOrder(t *testing.T) {
	assert.Equal(t, "LAS-DEN", DirectedRoute("LAS", "DEN"))
	assert.Equal(t, "DEN-LAS", DirectedRoute("DEN", "LAS"))
}

func TestMonthAnchor(t *testing.T) {
	d := MonthAnchor(2023, 7)
	assert.Equal(t, time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC), d)
}

func TestRouteMonthKeyOrder(t *testing.T) {
	a := RouteMonthKey{"DEN-LAS", 2023, 12}
	b := RouteMonthKey{"DEN-LAS", 2024, 1}
	c := RouteMonthKey{"HOU-DAL", 2022, 1}
	assert.True(t, a.less(b))
	assert.True(t, b.less(c))
	assert.False(t, b.less(a))
}
