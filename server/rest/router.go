package rest

import (
	"github.com/go-chi/chi/v5"
)

func ApplyRouter(args *ContainerArgs) func(chi.Router) {
	var (
		s = ProvideService(args)
		h = ProvideHandler(s)
	)

	return func(r chi.Router) {
		r.Get("/", h.Health)
		r.Post("/video-info", h.VideoInfo)
		r.Post("/download-sync", h.DownloadSync)
		r.Post("/download-async", h.DownloadAsync)
		r.Get("/download-status/{id}", h.DownloadStatus)
		r.Get("/download-status-ws/{id}", h.DownloadStatusWS)
		r.Get("/download-file/{id}", h.DownloadFile)
		r.Get("/jobs", h.Jobs)
		r.Get("/archive", h.Archived)
	}
}
