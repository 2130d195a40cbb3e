package pager

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// pagedFetch returns a FetchFunc that serves pages in order, using the page
// index as the continuation token. failAt, when >= 0, makes that page fail.
func pagedFetch(pages [][]int, failAt int, calls *int) FetchFunc[int] {
	return func(_ context.Context, token *string) ([]int, *string, error) {
		*calls++
		idx := 0
		if token != nil {
			idx, _ = strconv.Atoi(*token)
		}
		if idx == failAt {
			return nil, nil, errors.New("page failed")
		}
		var next *string
		if idx+1 < len(pages) {
			s := strconv.Itoa(idx + 1)
			next = &s
		}
		return pages[idx], next, nil
	}
}

func TestAll_ConcatenatesPagesInOrder(t *testing.T) {
	pages := [][]int{{1, 2}, {3}, {}, {4, 5, 6}}
	calls := 0
	got, err := All(context.Background(), pagedFetch(pages, -1, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 2, 3, 4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("len = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d; want %d", i, got[i], want[i])
		}
	}
	if calls != len(pages) {
		t.Errorf("fetch calls = %d; want %d", calls, len(pages))
	}
}

func TestAll_SinglePageNoToken(t *testing.T) {
	calls := 0
	got, err := All(context.Background(), pagedFetch([][]int{{7}}, -1, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("got %v; want [7]", got)
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d; want 1", calls)
	}
}

func TestAll_EmptyTokenTerminates(t *testing.T) {
	empty := ""
	calls := 0
	fetch := func(_ context.Context, _ *string) ([]int, *string, error) {
		calls++
		return []int{1}, &empty, nil
	}
	got, err := All(context.Background(), fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || calls != 1 {
		t.Errorf("got %v after %d calls; want [1] after 1 call", got, calls)
	}
}

func TestAll_ErrorReturnsItemsSoFar(t *testing.T) {
	pages := [][]int{{1, 2}, {3}, {4}}
	calls := 0
	got, err := All(context.Background(), pagedFetch(pages, 2, &calls))
	if err == nil {
		t.Fatal("expected error from failing page")
	}
	if len(got) != 3 {
		t.Errorf("partial items = %v; want [1 2 3]", got)
	}
}

func TestAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := All(ctx, pagedFetch([][]int{{1}}, -1, &calls))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v; want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("fetch calls = %d; want 0 after cancellation", calls)
	}
}

func TestFold_SumsAcrossPages(t *testing.T) {
	type tally struct{ count, sum int }
	pages := [][]int{{100, 200}, {200}}
	calls := 0
	got, err := Fold(context.Background(), pagedFetch(pages, -1, &calls), tally{}, func(acc tally, v int) tally {
		return tally{count: acc.count + 1, sum: acc.sum + v}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.count != 3 || got.sum != 500 {
		t.Errorf("tally = %+v; want {count:3 sum:500}", got)
	}
}

func TestPages_StopsWhenConsumerBreaks(t *testing.T) {
	pages := [][]int{{1}, {2}, {3}}
	calls := 0
	for range Pages(context.Background(), pagedFetch(pages, -1, &calls)) {
		break
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d; want 1", calls)
	}
}

// ── FromPaginator ─────────────────────────────────────────────────────────────

// pagedUsers serves ListUsers pages using IAM's IsTruncated/Marker scheme.
type pagedUsers struct {
	pages   [][]string
	failAt  int
	calls   int
	markers []string
}

func (f *pagedUsers) ListUsers(_ context.Context, in *iamsvc.ListUsersInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListUsersOutput, error) {
	f.calls++
	f.markers = append(f.markers, aws.ToString(in.Marker))
	idx := 0
	if in.Marker != nil {
		idx, _ = strconv.Atoi(*in.Marker)
	}
	if idx == f.failAt {
		return nil, errors.New("throttled")
	}
	out := &iamsvc.ListUsersOutput{}
	for _, name := range f.pages[idx] {
		out.Users = append(out.Users, iamtypes.User{UserName: aws.String(name)})
	}
	if idx+1 < len(f.pages) {
		out.IsTruncated = true
		out.Marker = aws.String(strconv.Itoa(idx + 1))
	}
	return out, nil
}

func userNames(out *iamsvc.ListUsersOutput) []string {
	names := make([]string, 0, len(out.Users))
	for _, u := range out.Users {
		names = append(names, aws.ToString(u.UserName))
	}
	return names
}

func TestFromPaginator_DrainsSDKPaginator(t *testing.T) {
	client := &pagedUsers{pages: [][]string{{"alice", "bob"}, {"carol"}, {"dave"}}, failAt: -1}
	p := iamsvc.NewListUsersPaginator(client, &iamsvc.ListUsersInput{})

	got, err := All(context.Background(), FromPaginator[iamsvc.Options](p, userNames))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alice", "bob", "carol", "dave"}
	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q; want %q", i, got[i], want[i])
		}
	}
	if client.calls != 3 {
		t.Errorf("ListUsers calls = %d; want 3", client.calls)
	}
	if client.markers[1] != "1" || client.markers[2] != "2" {
		t.Errorf("markers = %v; want the paginator to forward IAM markers", client.markers)
	}
}

func TestFromPaginator_PartialOnFailure(t *testing.T) {
	client := &pagedUsers{pages: [][]string{{"alice"}, {"bob"}, {"carol"}}, failAt: 1}
	p := iamsvc.NewListUsersPaginator(client, &iamsvc.ListUsersInput{})

	got, err := All(context.Background(), FromPaginator[iamsvc.Options](p, userNames))
	if err == nil {
		t.Fatal("expected error from the failing page")
	}
	if len(got) != 1 || got[0] != "alice" {
		t.Errorf("got %v; want [alice] gathered before the failure", got)
	}
}

func TestFromPaginator_SinglePage(t *testing.T) {
	client := &pagedUsers{pages: [][]string{{}}, failAt: -1}
	p := iamsvc.NewListUsersPaginator(client, &iamsvc.ListUsersInput{})

	got, err := All(context.Background(), FromPaginator[iamsvc.Options](p, userNames))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 || client.calls != 1 {
		t.Errorf("got %v after %d calls; want nothing after 1 call", got, client.calls)
	}
}
