package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/conversation"
	"github.com/habtamu-tamere/Bot/internal/cvs"
	"github.com/habtamu-tamere/Bot/internal/jobs"
	"github.com/habtamu-tamere/Bot/internal/logging"
	"github.com/habtamu-tamere/Bot/internal/session"
	"github.com/habtamu-tamere/Bot/internal/telegram/middleware"
)

// Scratch keys for the auxiliary text flows.
const (
	scratchStep = "step"

	jobStepTitle       = "job_title"
	jobStepDescription = "job_description"
	jobStepContact     = "job_contact"

	cvStepName       = "cv_name"
	cvStepHeadline   = "cv_headline"
	cvStepSkills     = "cv_skills"
	cvStepExperience = "cv_experience"
)

// HandleText consumes free text (and shared contacts) while a flow is active.
// The router guarantees InProgress was true when it calls this.
func (b *Bot) HandleText(c tele.Context) error {
	userID := c.Sender().ID

	switch b.sessions.GetState(userID) {
	case session.StatePostingJob:
		return b.jobStep(c)
	case session.StateDraftingCV:
		return b.cvStep(c)
	}

	act := conversation.Text(c.Text())
	if msg := c.Message(); msg != nil && msg.Contact != nil {
		act = conversation.ContactShared(msg.Contact.PhoneNumber)
	}
	return b.dispatch(c, act)
}

func (b *Bot) jobStep(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return c.Send("Please send plain text.")
	}

	step, _ := b.sessions.Scratch(userID, scratchStep)
	switch step {
	case jobStepTitle:
		b.sessions.SetScratch(userID, jobStepTitle, text)
		b.sessions.SetScratch(userID, scratchStep, jobStepDescription)
		return c.Send("Great. Now describe the position.")
	case jobStepDescription:
		b.sessions.SetScratch(userID, jobStepDescription, text)
		b.sessions.SetScratch(userID, scratchStep, jobStepContact)
		return c.Send("How should applicants get in touch? (phone, email or @username)")
	case jobStepContact:
		title, _ := b.sessions.Scratch(userID, jobStepTitle)
		desc, _ := b.sessions.Scratch(userID, jobStepDescription)
		return b.finishJob(c, jobs.Job{
			UserID:      userID,
			Username:    username(c),
			Title:       title,
			Description: desc,
			Contact:     text,
		})
	default:
		b.sessions.Clear(userID)
		return c.Send("That flow got lost. Start again with /postajob.")
	}
}

func (b *Bot) finishJob(c tele.Context, j jobs.Job) error {
	ctx := middleware.BuildContext(c)
	id, err := b.jobs.Create(ctx, j)
	if err != nil {
		logging.Error(ctx, "bot", "job.create_failed", slog.String("err", err.Error()))
		return c.Send("Could not save the job post. Please try again in a moment.")
	}
	j.ID = id

	published := true
	if b.notifier == nil {
		published = false
	} else if err := b.notifier.JobPosted(ctx, j); err != nil {
		published = false
		logging.Warn(ctx, "bot", "job.publish_failed",
			slog.Int64("job_id", id),
			slog.String("err", err.Error()),
		)
	}

	b.sessions.Clear(c.Sender().ID)
	logging.Info(ctx, "bot", "job.created", slog.Int64("job_id", id))
	if !published {
		return c.Send(fmt.Sprintf("✅ Job #%d saved. Publishing to the channel is delayed; we'll post it shortly.", id))
	}
	return c.Send(fmt.Sprintf("✅ Job #%d saved and sent to the channel.", id))
}

func (b *Bot) cvStep(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return c.Send("Please send plain text.")
	}

	step, _ := b.sessions.Scratch(userID, scratchStep)
	switch step {
	case cvStepName:
		b.sessions.SetScratch(userID, cvStepName, text)
		b.sessions.SetScratch(userID, scratchStep, cvStepHeadline)
		return c.Send("What headline describes you? (e.g. \"Junior Accountant\")")
	case cvStepHeadline:
		b.sessions.SetScratch(userID, cvStepHeadline, text)
		b.sessions.SetScratch(userID, scratchStep, cvStepSkills)
		return c.Send("List your skills, separated by commas.")
	case cvStepSkills:
		b.sessions.SetScratch(userID, cvStepSkills, text)
		b.sessions.SetScratch(userID, scratchStep, cvStepExperience)
		return c.Send("Finally, summarize your work experience.")
	case cvStepExperience:
		name, _ := b.sessions.Scratch(userID, cvStepName)
		headline, _ := b.sessions.Scratch(userID, cvStepHeadline)
		skills, _ := b.sessions.Scratch(userID, cvStepSkills)
		return b.finishCV(c, cvs.CV{
			UserID:     userID,
			FullName:   name,
			Headline:   headline,
			Skills:     cvs.ParseSkills(skills),
			Experience: text,
		})
	default:
		b.sessions.Clear(userID)
		return c.Send("That flow got lost. Start again with /makecv.")
	}
}

func (b *Bot) finishCV(c tele.Context, cv cvs.CV) error {
	ctx := middleware.BuildContext(c)
	id, err := b.cvs.Create(ctx, cv)
	if err != nil {
		logging.Error(ctx, "bot", "cv.create_failed", slog.String("err", err.Error()))
		return c.Send("Could not save your CV. Please try again in a moment.")
	}
	cv.ID = id

	b.sessions.Clear(c.Sender().ID)
	logging.Info(ctx, "bot", "cv.created", slog.Int64("cv_id", id))
	return c.Send("📄 Here is your CV:\n\n" + cv.Render())
}
