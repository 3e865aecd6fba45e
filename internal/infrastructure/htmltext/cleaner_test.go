package htmltext

import "testing"

func TestCleanStripsMarkup(t *testing.T) {
	c := New()
	got := c.Clean(`<div><p>수강신청은 <b>3월 2일</b>부터.</p><script>alert(1)</script><ul><li>1차</li><li>2차</li></ul></div>`)

	want := "수강신청은 3월 2일부터.\n1차\n2차"
	if got != want {
		t.Fatalf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanPlainTextPassthrough(t *testing.T) {
	c := New()
	got := c.Clean("첫   줄\n\n\n둘째  줄")
	want := "첫 줄\n둘째 줄"
	if got != want {
		t.Fatalf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanEmptyInput(t *testing.T) {
	c := New()
	if got := c.Clean(""); got != "" {
		t.Fatalf("Clean() = %q, want empty", got)
	}
}
