package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  John.DOE@Example.COM  ", "john.doe@example.com"},
		{"J.Doe+news@GoogleMail.com", "jdoe@gmail.com"},
		{"first.last+tag@gmail.com", "firstlast@gmail.com"},
		{"me+work@outlook.com", "me@outlook.com"},
		{"me-work@yahoo.com", "me@yahoo.com"},
		{"plus+kept@example.org", "plus+kept@example.org"},
		{"+only@gmail.com", "+only@gmail.com"},
		{"not-an-email", "not-an-email"},
	}
	for _, tt := range tests {
		if got := Email(tt.in); got != tt.want {
			t.Fatalf("Email(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
