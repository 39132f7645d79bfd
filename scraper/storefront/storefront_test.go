package storefront

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const categoryPage = `<html><body>
<div class="shelf">
	<div class="card">
		<div class="info">
			<a href="/pneu-goodyear-175-70-r13/p?sku=1">Pneu Goodyear 175/70 R13</a>
		</div>
		<div class="price"><span>R$</span> <span>219,90</span> <small>R$ 199,90 no Pix</small></div>
	</div>
	<div class="card">
		<a href="/pneu-goodyear-175-70-r13/p?sku=2"><img src="x.png"> Pneu Goodyear 175/70 R13</a>
		<span>R$ 219,90</span>
	</div>
	<div class="card">
		<a href="https://outra.loja.com.br/kit-pneu" title="Kit 4 Pneus Aro 14"><img src="y.png"></a>
		<p>R$ 799,90</p>
	</div>
	<a href="/institucional">Sobre nós</a>
	<a href="javascript:void(0)">Pneu fake</a>
</div>
</body></html>`

type staticRenderer struct {
	html string
	err  error
}

func (s staticRenderer) Render(context.Context, string) (string, error) { return s.html, s.err }

func TestParseCategoryPage(t *testing.T) {
	f := New("atacadao", staticRenderer{html: categoryPage}, []string{"pneu"})

	got, err := f.Fetch(context.Background(), "https://www.atacadao.com.br/automotivo/pneus")
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "Pneu Goodyear 175/70 R13", got[0].Title)
	require.Equal(t, "https://www.atacadao.com.br/pneu-goodyear-175-70-r13/p", got[0].URL)
	require.Contains(t, got[0].RawPrice, "R$ 199,90 no Pix")
	require.Equal(t, "atacadao", got[0].Source)

	require.Equal(t, "Kit 4 Pneus Aro 14", got[1].Title)
	require.Equal(t, "https://outra.loja.com.br/kit-pneu", got[1].URL)
	require.Equal(t, "R$ 799,90", got[1].RawPrice)
}

func TestParseWithoutPrices(t *testing.T) {
	f := New("atacadao", nil, []string{"pneu"})

	got, err := f.Parse("https://www.atacadao.com.br/", `<ul><li><a href="/p/1">Pneu Aro 13</a></li></ul>`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Empty(t, got[0].RawPrice)
	require.Equal(t, "https://www.atacadao.com.br/p/1", got[0].URL)
}

func TestFetchRendererError(t *testing.T) {
	f := New("atacadao", staticRenderer{err: errors.New("boom")}, []string{"pneu"})

	got, err := f.Fetch(context.Background(), "https://www.atacadao.com.br/")
	require.Error(t, err)
	require.Empty(t, got)
}

func TestHTTPRenderer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blocked" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(categoryPage))
	}))
	defer srv.Close()

	r := NewHTTPRenderer(5 * time.Second)
	html, err := r.Render(context.Background(), srv.URL+"/pneus")
	require.NoError(t, err)
	require.Contains(t, html, "Goodyear")

	_, err = r.Render(context.Background(), srv.URL+"/blocked")
	require.Error(t, err)

	got, err := New("dpaschoal", r, []string{"pneu"}).Fetch(context.Background(), srv.URL+"/pneus")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, srv.URL+"/pneu-goodyear-175-70-r13/p", got[0].URL)
}

func TestParseTitleFromAttribute(t *testing.T) {
	f := New("dpaschoal", nil, []string{"pneu"})

	got, err := f.Parse("https://www.dpaschoal.com.br/",
		`<div><a href="/p/9" title="Pneu Pirelli 185/65 R15">Ver produto</a><span>R$ 289,90</span></div>`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Pneu Pirelli 185/65 R15", got[0].Title)
	require.Contains(t, got[0].RawPrice, "R$ 289,90")
}
