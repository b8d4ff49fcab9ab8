package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/verification"
)

func sampleOutcome() verification.Outcome {
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	first := verification.WindowEndingAt(end, verification.WindowSize)
	second := verification.WindowEndingAt(first.Start, verification.WindowSize)
	return verification.Outcome{
		State:     verification.StateSuccess,
		MatchedID: "42",
		Windows: []verification.WindowResult{
			{Window: first, Status: verification.WindowError, Err: errors.New("timeout")},
			{Window: second, Status: verification.WindowMatch, ResourceID: "42", Transactions: 7},
		},
	}
}

func TestWriteOutcome(t *testing.T) {
	var buf bytes.Buffer
	writeOutcome(&buf, sampleOutcome())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "error=timeout")
	assert.Contains(t, lines[1], "resource=42")
	assert.Contains(t, lines[1], "7 transactions")
	assert.Equal(t, "result: success", lines[2])
}

func TestWriteOutcomeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutcomeJSON(&buf, "a@b.com", sampleOutcome()))

	var out struct {
		Email     string `json:"email"`
		State     string `json:"state"`
		MatchedID string `json:"matched_id"`
		Windows   []struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"windows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "success", out.State)
	assert.Equal(t, "42", out.MatchedID)
	require.Len(t, out.Windows, 2)
	assert.Equal(t, "timeout", out.Windows[0].Error)
	assert.Equal(t, "match", out.Windows[1].Status)
}

func TestHashKeyCommand(t *testing.T) {
	cmd := hashKeyCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"operator-key"})

	require.NoError(t, cmd.Execute())
	hash := strings.TrimSpace(buf.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("operator-key")))
}
