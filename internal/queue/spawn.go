package queue

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/services"
	"github.com/desertthunder/ytq/internal/shared"
	"github.com/desertthunder/ytq/internal/tasks"
)

// Every task below ends by sending exactly one terminal event, unless its context was cancelled.
// Permits are released before that event so the loop never observes a finished task holding one.

func (o *Orchestrator) spawnDetect(url string) {
	o.loading++
	o.loadingMessage = fmt.Sprintf("Fetching info for %s...", shared.Truncate(url, 60))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		permit, err := o.limiter.Acquire(o.ctx)
		if err != nil {
			return
		}
		defer permit.Release()

		out, err := services.Detect(o.ctx, o.client, url, o.detectTimeout)
		permit.Release()
		switch {
		case err != nil && isCancelled(o.ctx, err):
		case err != nil:
			o.bus.Send(tasks.PlaylistFailedEvent(url, err))
		case out.Playlist:
			o.bus.Send(tasks.PlaylistDetectedEvent(out.Result(o.now())))
		default:
			o.bus.Send(tasks.SingleDetectedEvent(out.Result(o.now())))
		}
	}()
}

// spawnFormats probes url. A background probe arrives holding permit; others wait for one.
func (o *Orchestrator) spawnFormats(ctx context.Context, h *tasks.Handle, url string, permit *tasks.Permit, background bool) {
	id, token := h.ItemID, h.Token

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		if permit == nil {
			p, err := o.limiter.Acquire(ctx)
			if err != nil {
				return
			}
			permit = p
		}
		defer permit.Release()

		res, err := o.client.Formats(ctx, url)
		permit.Release()
		if err != nil {
			if isCancelled(ctx, err) {
				return
			}
			o.bus.Send(tasks.FormatsFailedEvent(id, token, err, background))
			return
		}
		res.URL = url
		if res.CapturedAt.IsZero() {
			res.CapturedAt = o.now()
		}
		o.bus.Send(tasks.FormatsFetchedEvent(id, token, res, background))
	}()
}

// spawnDownload streams progress through a per-task channel; the forwarder is drained before the terminal event.
func (o *Orchestrator) spawnDownload(ctx context.Context, h *tasks.Handle, req services.DownloadRequest) {
	id, token := h.ItemID, h.Token

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		permit, err := o.limiter.Acquire(ctx)
		if err != nil {
			return
		}
		defer permit.Release()

		progress := make(chan models.Progress, 16)
		forwarded := make(chan struct{})
		go func() {
			defer close(forwarded)
			tasks.Forward(progress, o.progressRate, func(p models.Progress) {
				o.bus.Send(tasks.ProgressEvent(id, token, p))
			})
		}()

		err = o.client.Download(ctx, req, progress)
		close(progress)
		<-forwarded
		permit.Release()

		switch {
		case err == nil:
			o.bus.Send(tasks.DownloadCompletedEvent(id, token))
		case isCancelled(ctx, err):
		default:
			o.bus.Send(tasks.DownloadFailedEvent(id, token, err))
		}
	}()
}
