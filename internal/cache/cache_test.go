package cache

import (
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTTLCache(t *testing.T) {
	Convey("Given a TTL cache", t, func() {
		current := time.Date(2026, 5, 12, 11, 0, 0, 0, time.UTC)
		c := New[string](5*time.Minute, 3)
		c.now = func() time.Time { return current }

		Convey("A stored value is returned before the TTL elapses", func() {
			c.Set("a", "alpha")
			got, ok := c.Get("a")
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, "alpha")
		})

		Convey("An expired value is dropped on read", func() {
			c.Set("a", "alpha")
			current = current.Add(5 * time.Minute)
			_, ok := c.Get("a")
			So(ok, ShouldBeFalse)
			So(c.Len(), ShouldEqual, 0)
		})

		Convey("A missing key misses", func() {
			_, ok := c.Get("nope")
			So(ok, ShouldBeFalse)
		})

		Convey("The oldest entry is evicted beyond the bound", func() {
			for i := 0; i < 4; i++ {
				c.Set(fmt.Sprintf("k%d", i), "v")
			}
			So(c.Len(), ShouldEqual, 3)
			_, ok := c.Get("k0")
			So(ok, ShouldBeFalse)
			_, ok = c.Get("k3")
			So(ok, ShouldBeTrue)
		})

		Convey("Re-setting a key refreshes its value without growing the cache", func() {
			c.Set("a", "alpha")
			c.Set("a", "beta")
			So(c.Len(), ShouldEqual, 1)
			got, _ := c.Get("a")
			So(got, ShouldEqual, "beta")
		})
	})
}
