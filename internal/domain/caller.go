package domain

type UserID int64

type BotID string

// Caller: уже аутентифицированный пользователь запроса.
// Резолвится транспортом один раз и передаётся в каждую операцию явно;
// роль в чате никогда не кэшируется в Caller.
type Caller struct {
	UserID      UserID
	DisplayName string
	// Bot задан только у сервисных учётных данных бэкенда бота:
	// от имени этого бота вызывающему разрешено писать.
	Bot BotID
}

func (c *Caller) Valid() bool {
	return c != nil && c.UserID > 0
}

// ActsAs: учётные данные выпущены для этого бота.
func (c *Caller) ActsAs(bot BotID) bool {
	return c.Valid() && c.Bot != "" && c.Bot == bot
}

// Author это автор сообщения, человек или бот, строго одно из двух.
type Author struct {
	UserID *UserID
	BotID  *BotID
}

func UserAuthor(id UserID) Author {
	return Author{UserID: &id}
}

func BotAuthor(id BotID) Author {
	return Author{BotID: &id}
}

func (a Author) Valid() bool {
	return (a.UserID == nil) != (a.BotID == nil)
}

func (a Author) IsUser(id UserID) bool {
	return a.UserID != nil && *a.UserID == id
}

func (a Author) IsBot() bool {
	return a.BotID != nil
}
