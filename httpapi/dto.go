package httpapi

import "github.com/polkassembly/govauth"

type tokenResponse struct {
	Token string `json:"token"`
}

type loginResponse struct {
	UserID      int64  `json:"user_id"`
	Token       string `json:"token,omitempty"`
	TFARequired bool   `json:"isTFAEnabled,omitempty"`
	TFAToken    string `json:"tfa_token,omitempty"`
}

func newLoginResponse(res *govauth.LoginResult) loginResponse {
	return loginResponse{
		UserID:      res.UserID,
		Token:       res.Token,
		TFARequired: res.TFARequired,
		TFAToken:    res.TFAToken,
	}
}

type challengeResponse struct {
	SignMessage string `json:"signMessage"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tfaLoginRequest struct {
	UserID       int64  `json:"user_id"`
	AuthCode     string `json:"authCode"`
	TFAToken     string `json:"tfa_token"`
	LoginAddress string `json:"login_address"`
	LoginWallet  string `json:"login_wallet"`
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Network  string `json:"network"`
}

type addressRequest struct {
	Address string `json:"address"`
	Network string `json:"network"`
}

type signedRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Wallet    string `json:"wallet"`
	Network   string `json:"network"`
}

func (s signedRequest) engine() govauth.SignedRequest {
	return govauth.SignedRequest{
		Address:   s.Address,
		Signature: s.Signature,
		Wallet:    s.Wallet,
		Network:   s.Network,
	}
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email   string `json:"email"`
	Network string `json:"network"`
}

type resetPasswordRequest struct {
	UserID      int64  `json:"userId"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type setCredentialsRequest struct {
	signedRequest
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type postRequest struct {
	signedRequest
	Title   string `json:"title"`
	Content string `json:"content"`
	PostID  string `json:"postId"`
}

type postResponse struct {
	UserID  int64  `json:"user_id"`
	Address string `json:"address"`
	PostID  string `json:"post_id"`
	Created bool   `json:"created"`
}

type multisigRequest struct {
	Address     string   `json:"address"`
	Signatories []string `json:"addresses"`
	Threshold   uint     `json:"threshold"`
	Signatory   string   `json:"signatory"`
	Signature   string   `json:"signature"`
	Wallet      string   `json:"wallet"`
	Network     string   `json:"network"`
}

type proxyRequest struct {
	ProxyAddress   string `json:"proxy"`
	ProxiedAddress string `json:"proxied"`
	Message        string `json:"message"`
	Signature      string `json:"signature"`
	Wallet         string `json:"wallet"`
	Network        string `json:"network"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type changeEmailRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Network  string `json:"network"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type networkRequest struct {
	Network string `json:"network"`
}

type codeRequest struct {
	AuthCode string `json:"authCode"`
}

type tfaSetupResponse struct {
	Secret string `json:"base32_secret"`
	URI    string `json:"url"`
}
