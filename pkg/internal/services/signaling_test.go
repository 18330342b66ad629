package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillsphere/videocall/pkg/internal/models"
)

const testRoom = "abc123def456"

func TestOfferDirectRouting(t *testing.T) {
	resetRealtime(testRoom)
	sender, senderConn := joinTestClient("alice", testRoom)
	_, targetConn := joinTestClient("bob", testRoom)
	_, bystanderConn := joinTestClient("carol", testRoom)

	err := ForwardOffer(context.Background(), sender, testRoom, "bob", "v=0 fake sdp")
	require.NoError(t, err)

	offers := targetConn.received(models.EventSignalOffer)
	require.Len(t, offers, 1)
	payload, _ := offers[0].Payload.(map[string]any)
	assert.Equal(t, "alice", payload["from"])
	assert.Equal(t, "v=0 fake sdp", payload["sdp"])

	assert.Empty(t, bystanderConn.received(models.EventSignalOffer))
	assert.Empty(t, senderConn.received(models.EventSignalOffer))
}

func TestOfferFallsBackToRoomBroadcast(t *testing.T) {
	directory, _, _, _ := resetRealtime(testRoom)
	sender, senderConn := joinTestClient("alice", testRoom)
	_, targetConn := joinTestClient("bob", testRoom)
	_, bystanderConn := joinTestClient("carol", testRoom)

	// Simulate replication lag: bob's registration is not visible yet
	require.NoError(t, directory.Remove(context.Background(), "bob"))

	err := ForwardOffer(context.Background(), sender, testRoom, "bob", "v=0 fake sdp")
	require.NoError(t, err)

	assert.Len(t, targetConn.received(models.EventSignalOffer), 1)
	assert.Len(t, bystanderConn.received(models.EventSignalOffer), 1)
	assert.Empty(t, senderConn.received(models.EventSignalOffer))
}

func TestOfferBroadcastsWhenDirectoryIsDown(t *testing.T) {
	directory, _, _, _ := resetRealtime(testRoom)
	sender, _ := joinTestClient("alice", testRoom)
	_, targetConn := joinTestClient("bob", testRoom)

	directory.failing = true

	err := ForwardOffer(context.Background(), sender, testRoom, "bob", "v=0 fake sdp")
	require.NoError(t, err)
	assert.Len(t, targetConn.received(models.EventSignalOffer), 1)
}

func TestDirectoryOverwriteRoutesToNewestConnection(t *testing.T) {
	resetRealtime(testRoom)
	sender, _ := joinTestClient("alice", testRoom)
	_, oldConn := joinTestClient("bob", testRoom)
	_, newConn := joinTestClient("bob", testRoom)

	err := ForwardOffer(context.Background(), sender, testRoom, "bob", "v=0 fake sdp")
	require.NoError(t, err)

	assert.Empty(t, oldConn.received(models.EventSignalOffer))
	assert.Len(t, newConn.received(models.EventSignalOffer), 1)
}

func TestSdpSizeCap(t *testing.T) {
	resetRealtime(testRoom)
	sender, _ := joinTestClient("alice", testRoom)
	_, targetConn := joinTestClient("bob", testRoom)

	err := ForwardOffer(context.Background(), sender, testRoom, "bob", strings.Repeat("a", 50000))
	assert.NoError(t, err)
	assert.Len(t, targetConn.received(models.EventSignalOffer), 1)

	err = ForwardOffer(context.Background(), sender, testRoom, "bob", strings.Repeat("a", 50001))
	assert.Error(t, err)
	assert.Len(t, targetConn.received(models.EventSignalOffer), 1)
}

func TestAnswerSurfacesDeliveryFailure(t *testing.T) {
	resetRealtime(testRoom)
	sender, _ := joinTestClient("alice", testRoom)
	_, targetConn := joinTestClient("bob", testRoom)
	targetConn.fail = true

	err := ForwardAnswer(context.Background(), sender, testRoom, "bob", "v=0 fake sdp")
	assert.Error(t, err)
}

func TestCandidateNeverSurfacesFailures(t *testing.T) {
	resetRealtime(testRoom)
	sender, _ := joinTestClient("alice", testRoom)
	_, targetConn := joinTestClient("bob", testRoom)
	targetConn.fail = true

	// Transport fault and invalid input both stay silent
	ForwardCandidate(context.Background(), sender, testRoom, "bob", "candidate:1")
	ForwardCandidate(context.Background(), sender, "not a room", "bob", "candidate:1")
	ForwardCandidate(context.Background(), sender, testRoom, "bob", strings.Repeat("a", 10001))
}

func TestSignalRejectsInvalidRoomAndTarget(t *testing.T) {
	resetRealtime(testRoom)
	sender, _ := joinTestClient("alice", testRoom)

	assert.Error(t, ForwardOffer(context.Background(), sender, "nope", "bob", "sdp"))
	assert.Error(t, ForwardOffer(context.Background(), sender, testRoom, "", "sdp"))
	assert.Error(t, ForwardOffer(context.Background(), sender, testRoom, strings.Repeat("b", 101), "sdp"))
}
