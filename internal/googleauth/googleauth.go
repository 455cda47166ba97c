// ABOUTME: Interactive Google sign-in via loopback redirect
// ABOUTME: Obtains the ID token that the backend exchange endpoint expects

package googleauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Result carries the ID token plus the profile name pulled from its
// claims. The name feeds the greeting display-name hint.
type Result struct {
	IDToken     string
	DisplayName string
}

// Flow runs the authorization-code flow against Google with a loopback
// redirect, the way desktop CLIs sign in.
type Flow struct {
	cfg oauth2.Config
}

// New creates a flow for the given OAuth client. The secret may be empty
// for clients registered as public.
func New(clientID, clientSecret string) *Flow {
	return &Flow{cfg: oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}}
}

// Run listens on an ephemeral loopback port, hands the authorization URL
// to openURL (typically a browser launcher), and blocks until the
// redirect lands or ctx expires.
func (f *Flow) Run(ctx context.Context, openURL func(url string) error) (*Result, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to open loopback listener: %w", err)
	}
	defer listener.Close()

	cfg := f.cfg
	cfg.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr().String())

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	type callback struct {
		code string
		err  error
	}
	results := make(chan callback, 1)

	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- callback{err: errors.New("oauth state mismatch")}
			return
		}
		if errMsg := q.Get("error"); errMsg != "" {
			http.Error(w, errMsg, http.StatusBadRequest)
			results <- callback{err: fmt.Errorf("authorization refused: %s", errMsg)}
			return
		}
		fmt.Fprintln(w, "Signed in. You can close this window and return to the terminal.")
		results <- callback{code: q.Get("code")}
	})}
	go server.Serve(listener)
	defer server.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	if err := openURL(authURL); err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}

	var code string
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case cb := <-results:
		if cb.err != nil {
			return nil, cb.err
		}
		code = cb.code
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	token, err := cfg.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("google response carried no id_token")
	}

	return &Result{IDToken: idToken, DisplayName: NameFromIDToken(idToken)}, nil
}

// NameFromIDToken pulls the profile name claim out of an ID token without
// verifying it. Verification is the backend's job during the exchange;
// the name is only a greeting hint.
func NameFromIDToken(idToken string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return ""
	}
	if name, ok := claims["name"].(string); ok {
		return name
	}
	return ""
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
