package api

import (
	"html/template"
	"net/http"
)

var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "home"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Newsletter</title></head>
<body>
<p>Welcome to our newsletter!</p>
<form action="/subscriptions" method="post">
	<label>Name <input type="text" name="name"></label>
	<label>Email <input type="email" name="email"></label>
	<button type="submit">Subscribe</button>
</form>
</body>
</html>{{end}}

{{define "login"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Login</title></head>
<body>
{{range .Flashes}}<p><i>{{.}}</i></p>{{end}}
<form action="/login" method="post">
	<label>Username <input type="text" name="username"></label>
	<label>Password <input type="password" name="password"></label>
	<button type="submit">Login</button>
</form>
</body>
</html>{{end}}

{{define "dashboard"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Admin dashboard</title></head>
<body>
<p>Welcome {{.Username}}!</p>
<p>Available actions:</p>
<ol>
	<li><a href="/admin/newsletters">Publish a newsletter issue</a></li>
	<li><a href="/admin/password">Change password</a></li>
	<li>
		<form name="logoutForm" action="/admin/logout" method="post">
			<input type="submit" value="Logout">
		</form>
	</li>
</ol>
</body>
</html>{{end}}

{{define "change_password"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Change password</title></head>
<body>
{{range .Flashes}}<p><i>{{.}}</i></p>{{end}}
<form action="/admin/password" method="post">
	<label>Current password <input type="password" name="current_password"></label>
	<label>New password <input type="password" name="new_password"></label>
	<label>Confirm new password <input type="password" name="new_password_check"></label>
	<button type="submit">Change password</button>
</form>
<p><a href="/admin/dashboard">&lt;- Back</a></p>
</body>
</html>{{end}}

{{define "newsletter_form"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Publish newsletter issue</title></head>
<body>
{{range .Flashes}}<p><i>{{.}}</i></p>{{end}}
<form action="/admin/newsletters" method="post">
	<label>Title <input type="text" name="title"></label>
	<label>Plain text content <textarea name="text_content"></textarea></label>
	<label>HTML content <textarea name="html_content"></textarea></label>
	<input type="hidden" name="idempotency_key" value="{{.IdempotencyKey}}">
	<button type="submit">Publish</button>
</form>
<p><a href="/admin/dashboard">&lt;- Back</a></p>
</body>
</html>{{end}}
`))

func renderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}
