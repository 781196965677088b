package utils

import (
	"hbs/src/db"
	"hbs/src/lib"
	"hbs/src/models"
	"log"
	"os"

	"gorm.io/gorm"
)

// CreateNotification persists an in-app notification row. Failures are logged,
// never propagated: notifications must not break the money path.
func CreateNotification(userID uint, topic, message string) {
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		n := models.Notification{
			UserID:  userID,
			Topic:   topic,
			Message: message,
		}
		return tx.Create(&n).Error
	})
	if err != nil {
		log.Printf("Error creating notification for user %d: %s\n", userID, err.Error())
	}
}

func notifyReservationParties(r *models.Reservation, topic, guestMsg, hostMsg string) {
	CreateNotification(r.GuestID, topic, guestMsg)
	CreateNotification(r.HostID, topic, hostMsg)

	if os.Getenv("SMTP_HOST") == "" {
		return
	}
	go func() {
		gdb := db.GetDb()
		var guest, host models.User
		if err := gdb.Where(&models.User{ID: r.GuestID}).First(&guest).Error; err != nil {
			log.Printf("Could not load guest %d for email: %s\n", r.GuestID, err.Error())
			return
		}
		if err := gdb.Where(&models.User{ID: r.HostID}).First(&host).Error; err != nil {
			log.Printf("Could not load host %d for email: %s\n", r.HostID, err.Error())
			return
		}
		from := os.Getenv("MAIL_FROM")
		for _, m := range []struct {
			to   string
			body string
		}{
			{guest.Email, guestMsg},
			{host.Email, hostMsg},
		} {
			if m.to == "" {
				continue
			}
			if err := lib.SendMail(&lib.SendMailInput{
				From:     from,
				FromName: "Homestay",
				To:       []string{m.to},
				Subject:  topic,
				Body:     m.body,
			}); err != nil {
				log.Printf("Error sending notification email to %s: %s\n", m.to, err.Error())
			}
		}
	}()
}
