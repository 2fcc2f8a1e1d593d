package account

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTraceString(t *testing.T) {
	if got := LocalTrace().String(); got != "local" {
		t.Fatalf("local trace rendered as %q", got)
	}
	if got := RemoteTrace("ethereum", "osmosis").String(); got != "ethereum>osmosis" {
		t.Fatalf("remote trace rendered as %q", got)
	}
}

func TestParseTraceRoundTrip(t *testing.T) {
	for _, s := range []string{"local", "ethereum", "ethereum>osmosis", "my-chain>hub-4"} {
		trace, err := ParseTrace(s)
		if err != nil {
			t.Fatalf("ParseTrace(%q) failed: %v", s, err)
		}
		if trace.String() != s {
			t.Fatalf("round trip of %q produced %q", s, trace.String())
		}
	}
}

func TestTraceVerify(t *testing.T) {
	cases := []struct {
		name  string
		trace Trace
		ok    bool
	}{
		{"local", LocalTrace(), true},
		{"single hop", RemoteTrace("ethereum"), true},
		{"multi hop", RemoteTrace("ethereum", "osmosis", "hub-4"), true},
		{"hop too short", RemoteTrace("e"), false},
		{"hop with uppercase", RemoteTrace("Ethereum"), false},
		{"hop with leading dash", RemoteTrace("-chain"), false},
		{"hop with trailing dash", RemoteTrace("chain-"), false},
		{"hop with space", RemoteTrace("my chain"), false},
		{"too many hops", RemoteTrace("c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8"), false},
	}
	for _, tc := range cases {
		err := tc.trace.Verify()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%s: expected verification failure", tc.name)
			} else if !errors.Is(err, ErrInvalidTrace) {
				t.Errorf("%s: expected ErrInvalidTrace, got %v", tc.name, err)
			}
		}
	}
}

func TestIDStringAndParse(t *testing.T) {
	cases := []struct {
		id   ID
		want string
	}{
		{NewLocalID(0), "local-0"},
		{NewLocalID(5), "local-5"},
		{ID{Sequence: 7, Trace: RemoteTrace("ethereum", "osmosis")}, "ethereum>osmosis-7"},
		{ID{Sequence: 12, Trace: RemoteTrace("my-chain")}, "my-chain-12"},
	}
	for _, tc := range cases {
		if got := tc.id.String(); got != tc.want {
			t.Fatalf("ID rendered as %q, want %q", got, tc.want)
		}
		parsed, err := ParseID(tc.want)
		if err != nil {
			t.Fatalf("ParseID(%q) failed: %v", tc.want, err)
		}
		if !parsed.Equal(tc.id) {
			t.Fatalf("ParseID(%q) = %v, want %v", tc.want, parsed, tc.id)
		}
	}
}

func TestParseIDRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "local", "local-", "-5", "local-abc", "local-4294967296"} {
		if _, err := ParseID(s); err == nil {
			t.Errorf("ParseID(%q) succeeded, expected error", s)
		}
	}
}

func TestIDJSONRoundTrip(t *testing.T) {
	id := ID{Sequence: 7, Trace: RemoteTrace("ethereum", "osmosis")}
	b, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `"ethereum>osmosis-7"` {
		t.Fatalf("marshaled as %s", b)
	}
	var back ID
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !back.Equal(id) {
		t.Fatalf("round trip produced %v, want %v", back, id)
	}
}

func TestGovernanceVerifyIndividual(t *testing.T) {
	owner := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	resolved, err := NewIndividualGovernance(owner).Verify("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if resolved.Kind != GovernanceIndividual {
		t.Fatalf("resolved kind %q", resolved.Kind)
	}
	if resolved.Owner != owner {
		t.Fatalf("resolved owner %q, want %q", resolved.Owner, owner)
	}
}

func TestGovernanceVerifySubAccountCallerMismatch(t *testing.T) {
	controller := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	caller := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	_, err := NewSubAccountGovernance(controller).Verify(caller)
	if err == nil {
		t.Fatal("expected authorization error")
	}
	var authErr *SubAccountAuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected SubAccountAuthorizationError, got %v", err)
	}
	if authErr.Caller != caller || authErr.Controller != controller {
		t.Fatalf("error fields caller=%q controller=%q", authErr.Caller, authErr.Controller)
	}
}

func TestGovernanceVerifySubAccountByController(t *testing.T) {
	controller := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	resolved, err := NewSubAccountGovernance(controller).Verify(controller)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if resolved.Owner != controller {
		t.Fatalf("resolved owner %q, want controller", resolved.Owner)
	}
}

func TestGovernanceVerifyUnknownKind(t *testing.T) {
	_, err := Governance{Kind: "committee"}.Verify("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	if !errors.Is(err, ErrUnknownGovernance) {
		t.Fatalf("expected ErrUnknownGovernance, got %v", err)
	}
}

func TestGovernanceVerifyExternalRequiresKind(t *testing.T) {
	g := Governance{Kind: GovernanceExternal, Address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"}
	if _, err := g.Verify("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"); err == nil {
		t.Fatal("expected error for missing external kind")
	}
}

func TestValidateAddressNormalizes(t *testing.T) {
	got, err := ValidateAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	if err != nil {
		t.Fatalf("ValidateAddress failed: %v", err)
	}
	if got != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Fatalf("normalized to %q", got)
	}
	if _, err := ValidateAddress("not-an-address"); err == nil {
		t.Fatal("expected error for malformed address")
	}
}

func TestValidateMetadata(t *testing.T) {
	if err := ValidateName(""); err == nil {
		t.Error("empty name accepted")
	}
	if err := ValidateName(string(make([]byte, MaxNameLength+1))); err == nil {
		t.Error("oversized name accepted")
	}
	if err := ValidateName("treasury"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := ValidateLink("ftp://example.com"); err == nil {
		t.Error("non-http link accepted")
	}
	if err := ValidateLink("https://example.com/account"); err != nil {
		t.Errorf("valid link rejected: %v", err)
	}
	if err := ValidateDescription(string(make([]byte, MaxDescriptionLength+1))); err == nil {
		t.Error("oversized description accepted")
	}
}
