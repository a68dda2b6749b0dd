package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStore_TwoStepComposition(t *testing.T) {
	drafts := newDraftStore()

	drafts.begin(99)
	assert.True(t, drafts.active(99))

	stage, open := drafts.stage(99)
	require.True(t, open)
	assert.Equal(t, stageAwaitMedia, stage)

	// The media choice advances the draft but sends nothing yet.
	drafts.setMedia(99, "photo:abc")
	stage, open = drafts.stage(99)
	require.True(t, open)
	assert.Equal(t, stageAwaitText, stage)

	mediaRef, ok := drafts.consume(99)
	require.True(t, ok)
	assert.Equal(t, "photo:abc", mediaRef)
	assert.False(t, drafts.active(99))
}

func TestDraftStore_TextOnlyBroadcast(t *testing.T) {
	drafts := newDraftStore()

	drafts.begin(99)
	// Declining the image keeps the draft open for the text step.
	drafts.setMedia(99, "")

	stage, open := drafts.stage(99)
	require.True(t, open)
	assert.Equal(t, stageAwaitText, stage)

	mediaRef, ok := drafts.consume(99)
	require.True(t, ok)
	assert.Empty(t, mediaRef)
}

func TestDraftStore_NoOpenDraft(t *testing.T) {
	drafts := newDraftStore()

	_, open := drafts.stage(99)
	assert.False(t, open)

	// setMedia without an open draft must not create one.
	drafts.setMedia(99, "photo:abc")
	assert.False(t, drafts.active(99))

	_, ok := drafts.consume(99)
	assert.False(t, ok)
}
