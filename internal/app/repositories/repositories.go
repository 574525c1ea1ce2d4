package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	TokenRepository        *TokenRepository
	PostRepository         *PostRepository
	AnnouncementRepository *AnnouncementRepository
	EventRepository        *EventRepository
	CampaignRepository     *CampaignRepository
	ChatRepository         *ChatRepository
	TaskRepository         *TaskRepository
	BadgeRepository        *BadgeRepository
	HomepageRepository     *HomepageRepository
	NotificationRepository *NotificationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		TokenRepository:        NewTokenRepository(db),
		PostRepository:         NewPostRepository(db),
		AnnouncementRepository: NewAnnouncementRepository(db),
		EventRepository:        NewEventRepository(db),
		CampaignRepository:     NewCampaignRepository(db),
		ChatRepository:         NewChatRepository(db),
		TaskRepository:         NewTaskRepository(db),
		BadgeRepository:        NewBadgeRepository(db),
		HomepageRepository:     NewHomepageRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}
