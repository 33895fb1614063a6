package merge

import (
	"testing"

	coursedomain "studydash-backend/internal/course/domain"
	"studydash-backend/pkg/htmltext"

	"github.com/stretchr/testify/require"
)

func TestLinksProviderFirstNoLoss(t *testing.T) {
	existing := []htmltext.Link{{Label: "My Link", URL: "https://x.test"}}
	provider := []htmltext.Link{{Label: "View on Canvas", URL: "https://p.test"}}

	merged := Links(existing, provider)
	require.Len(t, merged, 2)
	require.Equal(t, "https://p.test", merged[0].URL)
	require.Equal(t, "https://x.test", merged[1].URL)

	// Merging again with the same provider link must not duplicate it
	again := Links(merged, provider)
	require.Len(t, again, 2)
}

func TestLinksDropsUserDuplicateOfProviderURL(t *testing.T) {
	existing := []htmltext.Link{{Label: "my copy", URL: "HTTPS://P.TEST"}}
	provider := []htmltext.Link{{Label: "View on Canvas", URL: "https://p.test"}}

	merged := Links(existing, provider)
	require.Len(t, merged, 1)
	require.Equal(t, "View on Canvas", merged[0].Label)
}

func TestLinksEmptyInputs(t *testing.T) {
	require.Empty(t, Links(nil, nil))

	existing := []htmltext.Link{{Label: "a", URL: "https://a.test"}}
	merged := Links(existing, nil)
	require.Equal(t, existing, merged)
}

func TestRenderSeedsHeaderForNewItem(t *testing.T) {
	out := Render("", "Read Ch.1")
	require.Equal(t, "──user──\n\n──provider──\nRead Ch.1", out)
}

func TestRenderOmitsEmptySides(t *testing.T) {
	require.Equal(t, "", Render("", ""))
	require.Equal(t, UserHeader+"\nonly mine", Render("only mine", ""))
}

func TestSplitBlobPreservesUserText(t *testing.T) {
	blob := "──user──\nMy own thought\n\n──provider──\nold text"

	user := SplitBlob(blob, "")
	require.Equal(t, "My own thought", user)

	// Recomposing with new provider content keeps the user segment
	// verbatim and extractable again.
	recomposed := Render(user, "new text")
	require.Equal(t, "My own thought", SplitBlob(recomposed, ""))
	require.Contains(t, recomposed, "new text")
	require.NotContains(t, recomposed, "old text")
}

func TestSplitBlobLegacyProviderSeparator(t *testing.T) {
	blob := "still mine\n\n── Synced from Blackboard ──\nstale provider text"
	require.Equal(t, "still mine", SplitBlob(blob, ""))
}

func TestSplitBlobHeaderOnly(t *testing.T) {
	blob := "──user──\njust my notes"
	require.Equal(t, "just my notes", SplitBlob(blob, ""))
}

func TestSplitBlobUnmarkedStaleProviderText(t *testing.T) {
	// Byte-identical to what the provider wrote last time: no user text
	require.Equal(t, "", SplitBlob("old provider text", "old provider text"))

	// Anything else without markers is user-authored
	require.Equal(t, "edited by hand", SplitBlob("edited by hand", "old provider text"))
}

func TestSplitBlobEmpty(t *testing.T) {
	require.Equal(t, "", SplitBlob("", "whatever"))
	require.Equal(t, "", SplitBlob("  \n ", ""))
}

func TestPromoteStatusRatchet(t *testing.T) {
	require.Equal(t, coursedomain.WorkItemStatusCompleted,
		PromoteStatus(coursedomain.WorkItemStatusPending, true))

	// Never demote, even when the provider reports not submitted
	require.Equal(t, coursedomain.WorkItemStatusCompleted,
		PromoteStatus(coursedomain.WorkItemStatusCompleted, false))

	require.Equal(t, coursedomain.WorkItemStatusPending,
		PromoteStatus(coursedomain.WorkItemStatusPending, false))
	require.Equal(t, coursedomain.WorkItemStatusInProgress,
		PromoteStatus(coursedomain.WorkItemStatusInProgress, false))
	require.Equal(t, coursedomain.WorkItemStatusCompleted,
		PromoteStatus(coursedomain.WorkItemStatusInProgress, true))
}
