// Package pipeline executes classified inbound events in the background: the
// text path hands off to the conversational collaborator, the sticker path
// runs the fetch/composite/encode/inject/upload/send sequence. Jobs carry no
// persisted state; a failure at any stage terminates the job without retry.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/deepakdhakad/stickerbot/internal/event"
	"github.com/deepakdhakad/stickerbot/internal/memory"
	"github.com/deepakdhakad/stickerbot/internal/reply"
	"github.com/deepakdhakad/stickerbot/internal/sticker"
	"github.com/deepakdhakad/stickerbot/internal/whatsapp"
)

// Stage names the steps of the sticker conversion sequence. A job moves
// through them strictly in order; the first failure ends the job.
type Stage string

const (
	StageResolveURL Stage = "resolve_url"
	StageDownload   Stage = "download"
	StageComposite  Stage = "composite"
	StageEncode     Stage = "encode"
	StageInject     Stage = "inject_metadata"
	StageUpload     Stage = "upload_media"
	StageSend       Stage = "send_message"
)

// Job binds one classified inbound event to a background execution.
type Job struct {
	ID    string
	Event event.InboundEvent
}

func NewJob(ev event.InboundEvent) Job {
	return Job{ID: NewID("job"), Event: ev}
}

// failureNotice is sent to the original sender when a sticker job fails and
// failure notification is enabled.
const failureNotice = "Sorry, I couldn't turn that image into a sticker. Please try another one."

// Runner executes jobs. All collaborators are injected; the runner holds no
// mutable state and is safe for concurrent use by pool workers.
type Runner struct {
	wa             *whatsapp.Client
	codec          sticker.MetadataCodec
	responder      reply.Responder
	store          memory.Store
	notifyFailures bool
	log            zerolog.Logger
}

func NewRunner(wa *whatsapp.Client, codec sticker.MetadataCodec, responder reply.Responder, store memory.Store, notifyFailures bool, log zerolog.Logger) *Runner {
	return &Runner{
		wa:             wa,
		codec:          codec,
		responder:      responder,
		store:          store,
		notifyFailures: notifyFailures,
		log:            log,
	}
}

// Run executes one job to completion or failure. Errors never propagate past
// the job boundary; the webhook response was sent long before this runs.
func (r *Runner) Run(ctx context.Context, job Job) {
	switch job.Event.Kind {
	case event.KindText:
		r.runText(ctx, job)
	case event.KindImage:
		r.runSticker(ctx, job)
	default:
		r.log.Warn().Str("job_id", job.ID).Str("kind", string(job.Event.Kind)).Msg("unknown job kind")
	}
}

func (r *Runner) runText(ctx context.Context, job Job) {
	ev := job.Event
	log := r.log.With().Str("job_id", job.ID).Str("sender", ev.Sender).Logger()

	text, err := r.responder.Reply(ctx, ev.Sender, ev.SenderName, ev.Body)
	if err != nil {
		log.Error().Err(err).Msg("responder failed")
		return
	}

	if err := r.wa.SendText(ctx, ev.Sender, text, ev.MessageID); err != nil {
		log.Error().Err(err).Msg("text reply send failed")
		return
	}

	if r.store != nil {
		if err := r.store.SaveMessage(ctx, ev.Sender, ev.Body); err != nil {
			log.Warn().Err(err).Msg("failed to save message to chat history")
		}
	}

	log.Info().Msg("text reply sent")
}

func (r *Runner) runSticker(ctx context.Context, job Job) {
	ev := job.Event
	log := r.log.With().
		Str("job_id", job.ID).
		Str("sender", ev.Sender).
		Str("media_id", ev.MediaID).
		Logger()

	stage := StageResolveURL
	url, err := r.wa.ResolveMediaURL(ctx, ev.MediaID)
	if err != nil {
		r.fail(ctx, log, ev, stage, err)
		return
	}

	stage = StageDownload
	raw, err := r.wa.DownloadMedia(ctx, url)
	if err != nil {
		r.fail(ctx, log, ev, stage, err)
		return
	}

	stage = StageComposite
	canvas, err := sticker.Compose(raw)
	if err != nil {
		r.fail(ctx, log, ev, stage, err)
		return
	}

	stage = StageEncode
	encoded, err := sticker.EncodeWebP(canvas)
	if err != nil {
		r.fail(ctx, log, ev, stage, err)
		return
	}

	stage = StageInject
	meta := sticker.NewPackMetadata(ev.Command.PackName, ev.Command.Publisher)
	finished, err := r.codec.Inject(ctx, encoded, meta)
	if err != nil {
		r.fail(ctx, log, ev, stage, err)
		return
	}

	stage = StageUpload
	mediaID, err := r.wa.UploadMedia(ctx, finished)
	if err != nil {
		r.fail(ctx, log, ev, stage, err)
		return
	}

	stage = StageSend
	if err := r.wa.SendSticker(ctx, ev.Sender, mediaID); err != nil {
		// The uploaded media stays orphaned on the platform; no
		// compensating deletion is attempted.
		r.fail(ctx, log, ev, stage, err)
		return
	}

	log.Info().Str("pack_id", meta.PackID).Str("uploaded_media_id", mediaID).Msg("sticker sent")
}

func (r *Runner) fail(ctx context.Context, log zerolog.Logger, ev event.InboundEvent, stage Stage, err error) {
	log.Error().Err(err).Str("stage", string(stage)).Msg("sticker job failed")

	if !r.notifyFailures {
		return
	}
	if err := r.wa.SendText(ctx, ev.Sender, failureNotice, ev.MessageID); err != nil {
		log.Warn().Err(err).Msg("failure notice send failed")
	}
}
