package integration

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

// inviteToken extracts the raw invite token from the last invite email sent to addr.
func (app *testApp) inviteToken(t *testing.T, addr string) string {
	t.Helper()
	var link string
	for _, msg := range app.Mail.Sent() {
		if msg.Kind == "budget_invite" && msg.To == addr {
			link = msg.Link
		}
	}
	if link == "" {
		t.Fatalf("no invite email sent to %s", addr)
	}
	idx := strings.Index(link, "token=")
	if idx < 0 {
		t.Fatalf("no token in invite link %q", link)
	}
	return link[idx+len("token="):]
}

func TestInviteFlow_ShareBudget(t *testing.T) {
	app := setupApp(t)

	ownerToken, _, _ := app.registerUser(t, "owner@test.com", "password123")
	guestToken, _, _ := app.registerUser(t, "guest@test.com", "password123")

	// Owner seeds the shared budget.
	app.request("POST", "/api/v1/budget/movements",
		`{"type":"income","amount":"2000","persona":"Dueño","received":true}`, ownerToken)
	app.request("PATCH", "/api/v1/budget", `{"name":"Compartido"}`, ownerToken)

	// Owner invites the guest.
	rec := app.request("POST", "/api/v1/invites", `{"email":"guest@test.com"}`, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating invite, got %d: %s", rec.Code, rec.Body.String())
	}

	// Guest accepts with the token from the email.
	token := app.inviteToken(t, "guest@test.com")
	rec = app.request("POST", "/api/v1/invites/accept",
		fmt.Sprintf(`{"token":%q}`, token), guestToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 accepting invite, got %d: %s", rec.Code, rec.Body.String())
	}

	// The guest now resolves to the shared budget, not their own.
	rec = app.request("GET", "/api/v1/budget", "", guestToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	overview := parseJSON(t, rec)
	if overview["name"] != "Compartido" {
		t.Errorf("expected shared budget, got %v", overview["name"])
	}

	rec = app.request("GET", "/api/v1/budget/summary", "", guestToken)
	if parseJSON(t, rec)["total_income"].(float64) != 2000 {
		t.Error("expected guest to see the shared income")
	}

	// Guest mutations land in the shared state.
	rec = app.request("POST", "/api/v1/budget/movements",
		`{"type":"income","amount":"500","persona":"Invitado","received":true}`, guestToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/budget/summary", "", ownerToken)
	if parseJSON(t, rec)["total_income"].(float64) != 2500 {
		t.Error("expected owner to see the guest's income")
	}

	// Both show up on the member list.
	rec = app.request("GET", "/api/v1/members", "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	members := parseJSON(t, rec)["data"].([]interface{})
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}
}

func TestInviteFlow_AcceptTwice(t *testing.T) {
	app := setupApp(t)

	ownerToken, _, _ := app.registerUser(t, "owner@test.com", "password123")
	guestToken, _, _ := app.registerUser(t, "guest@test.com", "password123")

	app.request("POST", "/api/v1/invites", `{"email":"guest@test.com"}`, ownerToken)
	token := app.inviteToken(t, "guest@test.com")

	rec := app.request("POST", "/api/v1/invites/accept",
		fmt.Sprintf(`{"token":%q}`, token), guestToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The invite is consumed on first accept.
	rec = app.request("POST", "/api/v1/invites/accept",
		fmt.Sprintf(`{"token":%q}`, token), guestToken)
	if rec.Code == http.StatusOK {
		t.Fatal("expected second accept to fail")
	}
}

func TestInviteFlow_RevokedInviteCannotBeAccepted(t *testing.T) {
	app := setupApp(t)

	ownerToken, _, _ := app.registerUser(t, "owner@test.com", "password123")
	guestToken, _, _ := app.registerUser(t, "guest@test.com", "password123")

	rec := app.request("POST", "/api/v1/invites", `{"email":"guest@test.com"}`, ownerToken)
	invite := parseJSON(t, rec)["invite"].(map[string]interface{})
	inviteID := invite["id"].(float64)
	token := app.inviteToken(t, "guest@test.com")

	rec = app.request("DELETE", fmt.Sprintf("/api/v1/invites/%.0f", inviteID), "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 revoking, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/invites/accept",
		fmt.Sprintf(`{"token":%q}`, token), guestToken)
	if rec.Code != http.StatusConflict && rec.Code != http.StatusNotFound && rec.Code != http.StatusGone {
		t.Fatalf("expected revoked invite to be rejected, got %d", rec.Code)
	}
	if rec.Code == http.StatusOK {
		t.Fatal("expected revoked invite rejection")
	}

	// Guest still resolves to their own budget.
	rec = app.request("GET", "/api/v1/members", "", guestToken)
	members := parseJSON(t, rec)["data"].([]interface{})
	if len(members) != 1 {
		t.Errorf("expected guest alone on their own budget, got %d members", len(members))
	}
}

func TestInviteFlow_OnlyOwnerCanInvite(t *testing.T) {
	app := setupApp(t)

	ownerToken, _, _ := app.registerUser(t, "owner@test.com", "password123")
	guestToken, _, _ := app.registerUser(t, "guest@test.com", "password123")

	app.request("POST", "/api/v1/invites", `{"email":"guest@test.com"}`, ownerToken)
	token := app.inviteToken(t, "guest@test.com")
	app.request("POST", "/api/v1/invites/accept", fmt.Sprintf(`{"token":%q}`, token), guestToken)

	// The guest is a member of the shared budget, not its owner.
	rec := app.request("POST", "/api/v1/invites", `{"email":"third@test.com"}`, guestToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-owner, got %d: %s", rec.Code, rec.Body.String())
	}
}
