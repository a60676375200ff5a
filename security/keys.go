package security

const (
	accessTokenPrefix      = "admin_access_token:"
	refreshTokenPrefix     = "admin_refresh_token:"
	userAccessTokenPrefix  = "admin_user_access_token:"
	userRefreshTokenPrefix = "admin_user_refresh_token:"
	apiAccessKeyPrefix     = "api_access_key:"
)

// AccessTokenKey maps an admin access token to the owning user id.
func AccessTokenKey(token string) string {
	return accessTokenPrefix + token
}

func RefreshTokenKey(token string) string {
	return refreshTokenPrefix + token
}

func UserAccessTokenKey(userID string) string {
	return userAccessTokenPrefix + userID
}

func UserRefreshTokenKey(userID string) string {
	return userRefreshTokenPrefix + userID
}

func ApiAccessKeyKey(key string) string {
	return apiAccessKeyPrefix + key
}
