package water

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hovq/outage-informer/internal/platform/webfetch"
)

const firstPage = `<html><body><div id="list-post">
<div class="panel">
  <div class="panel-heading">Ջրանջատում Երևանում</div>
  <div class="panel-body"><p>«Վեոլիա Ջուր» ընկերությունը տեղեկացնում է իր հաճախորդներին և սպառողներին, որ վթարային աշխատանքներով պայմանավորված ս.թ. մարտի 15-ին կդադարեցվի ջրամատակարարումը:</p>
<p>Ընկերությունը հայցում է սպառողների ներողամտությունը պատճառված անհանգստության և կանխավ շնորհակալություն հայտնում ըմբռնման համար:</p>
<p>15.03.2026թ</p></div>
</div>
<div class="panel">
  <div class="panel-heading">Վթար Գյումրիում</div>
  <div class="panel-body"><p>Գյումրիում տեղի է ունեցել վթար:</p></div>
</div>
</div></body></html>`

const secondPage = `<html><body><div id="list-post">
<div class="panel">
  <div class="panel-heading">Հին հայտարարություն</div>
  <div class="panel-body"><p>Ավելի վաղ տեղադրված տեքստ:</p></div>
</div>
</div></body></html>`

func newFeedServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
}

func TestExtractReversesToOldestFirst(t *testing.T) {
	srv := newFeedServer(t, map[string]string{"/page1": firstPage, "/page2": secondPage})
	defer srv.Close()

	logger := zerolog.Nop()
	src := New(webfetch.New(10, time.Second), []string{srv.URL + "/page1", srv.URL + "/page2"}, &logger)

	items, err := src.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "Հին հայտարարություն", items[0].Title)
	assert.Equal(t, "Վթար Գյումրիում", items[1].Title)
	assert.Equal(t, "Ջրանջատում Երևանում", items[2].Title)
}

func TestExtractStripsBoilerplate(t *testing.T) {
	srv := newFeedServer(t, map[string]string{"/": firstPage})
	defer srv.Close()

	logger := zerolog.Nop()
	src := New(webfetch.New(10, time.Second), []string{srv.URL + "/"}, &logger)

	items, err := src.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	body := items[1].Body
	assert.NotContains(t, body, "ներողամտությունը", "courtesy sentence must be stripped")
	assert.NotContains(t, body, "«Վեոլիա Ջուր» ընկերությունը տեղեկացնում է")
	assert.NotContains(t, body, "15.03.2026")
	assert.Contains(t, body, "մարտի 15-ին կդադարեցվի ջրամատակարարումը:")
}

func TestExtractHashCoversFullBody(t *testing.T) {
	srv := newFeedServer(t, map[string]string{"/": firstPage})
	defer srv.Close()

	logger := zerolog.Nop()
	src := New(webfetch.New(10, time.Second), []string{srv.URL + "/"}, &logger)

	items, err := src.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.NotEmpty(t, items[0].Hash)
	assert.NotEmpty(t, items[1].Hash)
	assert.NotEqual(t, items[0].Hash, items[1].Hash)
}

func TestExtractFailingPageAborts(t *testing.T) {
	srv := newFeedServer(t, map[string]string{"/ok": secondPage})
	defer srv.Close()

	logger := zerolog.Nop()
	src := New(webfetch.New(10, time.Second), []string{srv.URL + "/ok", srv.URL + "/missing"}, &logger)

	_, err := src.Extract(context.Background())
	require.ErrorIs(t, err, webfetch.ErrHTTPStatus)
}
