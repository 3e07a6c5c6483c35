package simulator

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router junta o feed WS, a plataforma mock e as rotas de administração
func Router(fs *FeedServer, p *Platform) http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", fs.HandleWS) // Feed de odds ao vivo
	p.Mount(r)
	r.Post("/admin/outcomes/{id}/withdraw", func(w http.ResponseWriter, r *http.Request) {
		if !fs.Withdraw(chi.URLParam(r, "id")) {
			reject(w, http.StatusNotFound, "outcome not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}
