package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldC, oldB := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldV, oldC, oldB })

	Version, Commit, BuildTime = "1.2.3", "abc1234", "2024-07-14T12:00:00Z"

	if got, want := String(), "1.2.3 (abc1234) built 2024-07-14T12:00:00Z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	if len(info)%2 != 0 {
		t.Fatalf("Info() has %d elements, want key/value pairs", len(info))
	}
	if info[0] != "version" || info[1] != Version {
		t.Errorf("Info()[0:2] = %v, want [version %s]", info[0:2], Version)
	}
}
