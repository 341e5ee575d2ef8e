package mailer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/oops"

	tpl "github.com/oksasatya/stockmaster/pkg/mailer/templates"
)

// Delivery is the part of an AMQP delivery the worker needs.
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Worker renders queued EmailJobs and sends them.
type Worker struct {
	Sender  Sender
	Timeout time.Duration
}

// Process renders and sends one job body. Malformed or unrenderable jobs
// are rejected with oops code JOB_INVALID and should not be retried.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return oops.Code("JOB_INVALID").Wrapf(err, "decode email job")
	}
	if job.To == "" {
		return oops.Code("JOB_INVALID").Errorf("email job has no recipient")
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := tpl.Render(job.Template, job.Data)
		if err != nil {
			return oops.Code("JOB_INVALID").With("template", job.Template).Wrapf(err, "render")
		}
		subject, text, html = s, t, h
	}

	c, cancel := withTimeout(ctx, w.Timeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		return oops.Code("SEND_FAILED").With("to", job.To).Wrapf(err, "send")
	}
	return nil
}

// Handle processes d and acks it; send failures are requeued, invalid jobs dropped.
func (w *Worker) Handle(ctx context.Context, d Delivery, body []byte) error {
	err := w.Process(ctx, body)
	switch {
	case err == nil:
		return d.Ack(false)
	case IsInvalidJob(err):
		_ = d.Nack(false, false)
	default:
		_ = d.Nack(false, true)
	}
	return err
}

func IsInvalidJob(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == "JOB_INVALID"
}
