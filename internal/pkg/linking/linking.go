package linking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
)

// Terminal outcomes of a redemption attempt. The first two are user-facing;
// ErrLinkFailed wraps storage failures and leaves no partial state behind.
var (
	ErrInvalidOrExpiredCode = errors.New("linking code is invalid or expired")
	ErrAlreadyLinked        = errors.New("account already has a chat linked")
	ErrLinkFailed           = errors.New("linking failed")
)

// Result describes a committed redemption.
type Result struct {
	ChatID          string
	MergedOrphan    bool
	MovedReminders  int64
	RedeemedByEmail string
}

// Redeem binds the linking code's chat identity to the authenticated user.
//
// The whole merge runs in one transaction: look up an orphan bot account
// holding the chat id, move its reminders over, hard-delete it (cascades
// clean up the rest), set the chat id on the user and mark the code used.
// The mark-used UPDATE re-checks used_at IS NULL so two concurrent
// redemptions of the same code cannot both commit.
func Redeem(ctx context.Context, db *gorm.DB, userID uint, submittedCode string) (*Result, error) {
	code := models.NormalizeLinkingCode(submittedCode)
	if len(code) != models.LinkingCodeLength {
		return nil, ErrInvalidOrExpiredCode
	}

	res := &Result{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var lc models.LinkingCode
		if err := tx.Where("code = ?", code).First(&lc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidOrExpiredCode
			}
			return fmt.Errorf("%w: %v", ErrLinkFailed, err)
		}
		if !lc.IsRedeemable(now) {
			return ErrInvalidOrExpiredCode
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrLinkFailed, err)
		}
		if user.HasChatLinked() {
			return ErrAlreadyLinked
		}

		// The bot may have created a provisional account for this chat before
		// the web signup. Absorb it: reminders move, the orphan row goes.
		var orphan models.User
		err := tx.Where("chat_id = ? AND id <> ?", lc.ChatID, user.ID).First(&orphan).Error
		switch {
		case err == nil:
			moved := tx.Model(&models.Reminder{}).
				Where("user_id = ?", orphan.ID).
				Update("user_id", user.ID)
			if moved.Error != nil {
				return fmt.Errorf("%w: %v", ErrLinkFailed, moved.Error)
			}
			res.MovedReminders = moved.RowsAffected
			if err := tx.Delete(&models.User{}, orphan.ID).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrLinkFailed, err)
			}
			res.MergedOrphan = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			// nothing to merge
		default:
			return fmt.Errorf("%w: %v", ErrLinkFailed, err)
		}

		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("chat_id", lc.ChatID).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrLinkFailed, err)
		}

		marked := tx.Model(&models.LinkingCode{}).
			Where("id = ? AND used_at IS NULL", lc.ID).
			Updates(map[string]interface{}{"used_at": &now, "used_by": user.ID})
		if marked.Error != nil {
			return fmt.Errorf("%w: %v", ErrLinkFailed, marked.Error)
		}
		if marked.RowsAffected == 0 {
			// Lost the race against another redemption of the same code.
			return ErrInvalidOrExpiredCode
		}

		res.ChatID = lc.ChatID
		res.RedeemedByEmail = user.Email
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Unlink clears the user's chat identity. Bot-owned data (contacts keyed by
// chat id) is untouched; a later re-link picks it back up.
func Unlink(ctx context.Context, db *gorm.DB, userID uint) error {
	return db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("chat_id", nil).Error
}
