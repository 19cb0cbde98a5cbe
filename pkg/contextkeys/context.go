package contextkeys

// ContextKey - типизированный ключ для context.Context и gin.Context
type ContextKey string

const (
	// DBContextKey - под этим ключом middleware кладет *gorm.DB (пул или транзакцию)
	DBContextKey ContextKey = "db"

	// CurrentUserKey - под этим ключом auth-middleware кладет *models.User
	CurrentUserKey ContextKey = "currentUser"
)
