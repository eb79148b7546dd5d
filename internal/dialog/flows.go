package dialog

import (
	"context"
	"errors"
	"strconv"

	"github.com/m3rciful/tagbot/internal/tags"
)

// add_tag

func addTagStep(_ context.Context, _ *Engine, t *turn, _ tags.Repository) error {
	name := t.in.Text
	if err := tags.ValidateName(name); err != nil {
		return rejectInput(t, msgNameRulesHead, err)
	}
	t.sess.SetTemp(keyTag, name)
	t.moveTo(StateAddWaitingForText)
	t.say(msgAskText)
	return nil
}

func addTextStep(ctx context.Context, _ *Engine, t *turn, repo tags.Repository) error {
	text := t.in.Text
	if err := tags.ValidateText(text); err != nil {
		return rejectInput(t, msgTextRulesHead, err)
	}
	name, _ := t.sess.Temp(keyTag)

	user, err := tags.EnsureUser(ctx, repo, t.in.UserID, t.in.Username)
	if err != nil {
		return err
	}
	if _, err := repo.CreateTag(ctx, user, name, text); err != nil {
		return err
	}
	t.sayHTML(addedMessage(name, text))
	t.say(msgTagAdded)
	t.finish()
	return nil
}

// rejectInput re-prompts with the violated rules and keeps the session as is.
func rejectInput(t *turn, head string, err error) error {
	var verr *tags.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	t.say(rulesMessage(head, verr))
	t.outcome = OutcomeInvalid
	return nil
}

// remove_tag

func removeTagStep(ctx context.Context, e *Engine, t *turn, repo tags.Repository) error {
	name := t.in.Text
	found, err := repo.FindTagsByName(ctx, t.in.UserID, name)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		t.say(msgTagNotFound)
		t.outcome = OutcomeNotFound
		return nil
	}

	a, b := e.roll(), e.roll()
	t.sess.SetTemp(keyTag, name)
	t.sess.SetTempInt(keyFirst, a)
	t.sess.SetTempInt(keySecond, b)
	t.sess.SetTempInt(keySum, a+b)
	t.moveTo(StateRemoveWaitingForApproval)
	t.sayHTML(challengeMessage(a, b))
	return nil
}

func removeApprovalStep(ctx context.Context, _ *Engine, t *turn, repo tags.Repository) error {
	sum, _ := t.sess.TempInt(keySum)
	if t.in.Text != strconv.Itoa(sum) {
		t.say(msgWrongAnswer)
		t.outcome = OutcomeMismatch
		return nil
	}
	name, _ := t.sess.Temp(keyTag)
	if _, err := repo.DeleteTagsByName(ctx, t.in.UserID, name); err != nil {
		return err
	}
	t.say(msgTagRemoved)
	t.finish()
	return nil
}

// edit_tag

func editTagStep(ctx context.Context, _ *Engine, t *turn, repo tags.Repository) error {
	tag, err := tags.FirstByName(ctx, repo, t.in.UserID, t.in.Text)
	if errors.Is(err, tags.ErrNotFound) {
		t.say(msgTagNotFound)
		t.outcome = OutcomeNotFound
		return nil
	}
	if err != nil {
		return err
	}
	t.sess.SetTemp(keyTag, tag.Name)
	t.moveTo(StateEditWaitingForText)
	t.sayHTML(currentTextMessage(tag.Text))
	return nil
}

// editTextStep replaces the text without the length check add_tag applies.
func editTextStep(ctx context.Context, _ *Engine, t *turn, repo tags.Repository) error {
	name, _ := t.sess.Temp(keyTag)
	tag, err := tags.FirstByName(ctx, repo, t.in.UserID, name)
	if errors.Is(err, tags.ErrNotFound) {
		// removed between the two steps
		t.say(msgTagNotFound)
		t.finish()
		t.outcome = OutcomeNotFound
		return nil
	}
	if err != nil {
		return err
	}
	if err := repo.UpdateTagText(ctx, tag, t.in.Text); err != nil {
		return err
	}
	t.say(msgTagUpdated)
	t.finish()
	return nil
}
