package testutil

import (
	"time"

	"timestreams/internal/provider"
	"timestreams/internal/timestreams"
)

// FixtureTime is a clock reading after every post in FixtureStream.
var FixtureTime = time.Date(2020, 7, 15, 12, 0, 0, 0, time.UTC)

// FixtureStream returns a small stream with two posts on 2020-07-01 (one
// carrying sidecars) and one on 2020-06-01. Only .txt has a media type.
func FixtureStream() *provider.MemoryProvider {
	p := provider.NewMemoryProvider("fixture", map[string]string{".txt": "text/plain"})
	p.AddFile("2020/07/01/hello.txt", "Hello, world")
	p.AddFile("2020/07/01/hello.txt$self.attributes", `title="test post";`)
	p.AddFile("2020/07/01/hello.txt$describedby.txt", "This is a test post")
	p.AddFile("2020/07/01/hello.txt$describedby.txt.attributes", "title=Description")
	p.AddFile("2020/07/01/z.txt", "The last word")
	p.AddFile("2020/06/01/a.txt", "The first word")
	p.SetEarliestDay(timestreams.Date(2020, 6, 1))
	return p
}

// FixtureService returns a Service over FixtureStream with the clock at
// FixtureTime.
func FixtureService() (*timestreams.Service, *provider.MemoryProvider) {
	p := FixtureStream()
	return timestreams.NewService(p, timestreams.NewNopLogger(), NewStubClock(FixtureTime)), p
}
