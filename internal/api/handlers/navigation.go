package handlers

import (
	"net/http"
	"path"

	"github.com/athebyme/gomarket-storefront/internal/domain/shop"
)

// requestLocation адрес списка, к которому относится действие: путь без последнего
// сегмента действия и строка запроса текущего состояния фильтров
type requestLocation struct {
	path  string
	query string
}

func listingLocation(r *http.Request) requestLocation {
	return requestLocation{path: path.Dir(r.URL.Path), query: r.URL.RawQuery}
}

func (l requestLocation) Path() string     { return l.path }
func (l requestLocation) RawQuery() string { return l.query }

// redirectNavigator запоминает адрес перехода; ответом на действие служит 303
type redirectNavigator struct {
	target string
}

func (n *redirectNavigator) Navigate(target string) error {
	n.target = target
	return nil
}

var (
	_ shop.Location  = requestLocation{}
	_ shop.Navigator = (*redirectNavigator)(nil)
)

func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
