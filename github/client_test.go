package github

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
)

func TestAccountLookup(t *testing.T) {
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(
		"GET", "https://api.github.com/users/octocat",
		httpmock.NewStringResponder(200, `{"id": 583231, "login": "octocat"}`),
	)

	client := NewAPIClient(httpClient)
	account, err := client.Account(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("Account() failed: %v", err)
	}
	if account.ID != 583231 {
		t.Errorf("expected id 583231, got %d", account.ID)
	}
	if account.Login != "octocat" {
		t.Errorf("expected login octocat, got %q", account.Login)
	}
}

func TestAccountLookupCanonicalizesLogin(t *testing.T) {
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(
		"GET", "https://api.github.com/users/OctoCat",
		httpmock.NewStringResponder(200, `{"id": 583231, "login": "octocat"}`),
	)

	client := NewAPIClient(httpClient)
	account, err := client.Account(context.Background(), "OctoCat")
	if err != nil {
		t.Fatalf("Account() failed: %v", err)
	}
	if account.Login != "octocat" {
		t.Errorf("expected canonical login octocat, got %q", account.Login)
	}
}

func TestAccountNotFound(t *testing.T) {
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(
		"GET", "https://api.github.com/users/missing",
		httpmock.NewStringResponder(404, `{"message": "Not Found"}`),
	)

	client := NewAPIClient(httpClient)
	_, err := client.Account(context.Background(), "missing")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
