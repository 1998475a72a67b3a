package helper

import (
	"fmt"
	"net/http"
	"sync"
)

// ErrorReporter is satisfied by the errHandler repository; declared here so
// background tasks can report panics without a hard dependency.
type ErrorReporter interface {
	ReportServerError(r *http.Request, err error)
}

type HelperRepository struct {
	baseUrl  *string
	WG       *sync.WaitGroup
	reporter ErrorReporter
}

func New(baseUrl *string, wg *sync.WaitGroup, reporter ErrorReporter) *HelperRepository {
	return &HelperRepository{
		baseUrl:  baseUrl,
		WG:       wg,
		reporter: reporter,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL": h.baseUrl,
	}

	return data
}

// BackgroundTask runs fn on its own goroutine, recovering panics so a bad
// task cannot take the server down. The wait group lets shutdown drain
// in-flight tasks.
func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			err := recover()
			if err != nil && h.reporter != nil {
				h.reporter.ReportServerError(r, fmt.Errorf("%s", err))
			}
		}()

		err := fn()
		if err != nil && h.reporter != nil {
			h.reporter.ReportServerError(r, err)
		}
	}()
}
