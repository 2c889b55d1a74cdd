package request_models

// ContactFormRequest accepts both JSON and classic form posts. The
// _gotcha field is the honeypot; _redirect sends browsers back to the
// site after a successful submit.
type ContactFormRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Message  string `json:"message" form:"message"`
	BotField string `json:"_gotcha" form:"_gotcha"`
	Redirect string `json:"_redirect" form:"_redirect"`
}
