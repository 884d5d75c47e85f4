package httpapi

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageRenderer struct {
	index *template.Template
}

type indexView struct {
	Season     string
	Total      int
	Missing    int
	TotalSlots int
	NewDates   []tourDateDTO
	Calendar   []calendarMonthDTO
}

func newPageRenderer() *pageRenderer {
	index := template.Must(template.New("index.html").
		Funcs(template.FuncMap{"percent": tourdate.FormatPercentage}).
		ParseFS(templateFS, "templates/index.html"))
	return &pageRenderer{index: index}
}

// render buffers the whole page before writing any headers.
func (p *pageRenderer) render(ctx context.Context, w http.ResponseWriter, overview usecase.Overview) error {
	_, span := startSpan(ctx, "httpapi.pageRenderer.render")
	defer span.End()

	view := indexView{
		Season:     overview.Season,
		Total:      overview.Total,
		Missing:    overview.Missing,
		TotalSlots: tourdate.TotalSlots(),
		NewDates:   make([]tourDateDTO, 0, len(overview.Recent)),
		Calendar:   make([]calendarMonthDTO, 0, len(overview.Calendar)),
	}
	for _, row := range overview.Recent {
		view.NewDates = append(view.NewDates, tourDateToDTO(row))
	}
	for _, month := range overview.Calendar {
		view.Calendar = append(view.Calendar, calendarMonthToDTO(month))
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := p.index.Execute(buf, view); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}
