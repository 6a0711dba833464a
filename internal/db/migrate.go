package db

import (
	"fmt"
	"time"

	"github.com/buurtplein/buurtchat/internal/config"
	"github.com/buurtplein/buurtchat/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Conversation{},
		&models.Message{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

type demoThread struct {
	participantID string
	name          string
	kind          string
	online        bool
	lines         []demoLine
}

type demoLine struct {
	fromSelf bool
	text     string
	read     bool
}

var demoThreads = []demoThread{
	{
		participantID: "biz-bakkerij-korenaar",
		name:          "Bakkerij De Gouden Korenaar",
		kind:          models.KindBusiness,
		online:        true,
		lines: []demoLine{
			{fromSelf: true, text: "Hebben jullie zaterdag nog speltbrood?", read: true},
			{text: "Zeker! Vanaf 8 uur ligt het klaar.", read: false},
		},
	},
	{
		participantID: "biz-fietsenmaker-jansen",
		name:          "Fietsenmaker Jansen",
		kind:          models.KindBusiness,
		online:        false,
		lines: []demoLine{
			{text: "Uw fiets is klaar om opgehaald te worden.", read: true},
			{fromSelf: true, text: "Top, ik kom morgen langs.", read: true},
		},
	},
	{
		participantID: "user-sophie-devries",
		name:          "Sophie de Vries",
		kind:          models.KindPersonal,
		online:        true,
		lines: []demoLine{
			{text: "Hoi buurman! Is dat appartement aan de Singel nog beschikbaar?", read: false},
			{text: "Ik zou graag een bezichtiging plannen.", read: false},
		},
	},
}

// SeedDemo inserts a handful of neighbourhood conversations when the
// conversations table is empty. It returns the number of conversations
// created.
func SeedDemo(db *gorm.DB, self config.SelfConfig) (int, error) {
	var count int64
	if err := db.Model(&models.Conversation{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("db: seed demo: count conversations: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	base := time.Now().Add(-time.Duration(len(demoThreads)) * time.Hour)
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for i, dt := range demoThreads {
			at := base.Add(time.Duration(i) * time.Hour)
			conv := models.Conversation{
				ID:              uuid.NewString(),
				ParticipantID:   dt.participantID,
				ParticipantName: dt.name,
				ParticipantKind: dt.kind,
				Online:          true,
				CreatedAt:       at,
			}
			if err := tx.Create(&conv).Error; err != nil {
				return fmt.Errorf("seed conversation %q: %w", dt.name, err)
			}
			if !dt.online {
				// Online carries default:true, so false must be written explicitly.
				if err := tx.Model(&conv).Update("online", false).Error; err != nil {
					return fmt.Errorf("seed presence %q: %w", dt.name, err)
				}
			}

			var lastID string
			for j, line := range dt.lines {
				msg := models.Message{
					ID:             uuid.NewString(),
					ConversationID: conv.ID,
					Sequence:       j + 1,
					Content:        line.text,
					Read:           line.read,
					CreatedAt:      at.Add(time.Duration(j+1) * time.Minute),
				}
				if line.fromSelf {
					msg.SenderID, msg.SenderName, msg.SenderAvatar = self.ID, self.Name, self.Avatar
				} else {
					msg.SenderID, msg.SenderName = dt.participantID, dt.name
				}
				if err := tx.Create(&msg).Error; err != nil {
					return fmt.Errorf("seed message for %q: %w", dt.name, err)
				}
				lastID = msg.ID
			}
			if lastID != "" {
				if err := tx.Model(&conv).Update("last_message_id", lastID).Error; err != nil {
					return fmt.Errorf("seed last message for %q: %w", dt.name, err)
				}
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("db: seed demo: %w", err)
	}
	return created, nil
}
