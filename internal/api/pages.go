package api

import (
	"html/template"
	"net/http"
)

// landingTmpl is the public landing page served at GET /.
var landingTmpl = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Slotwatch — Vaccine Slot Alerts</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
           max-width: 560px; margin: 60px auto; padding: 0 20px; color: #1a1a2e; }
    h1 { font-size: 1.6em; }
    form { display: flex; gap: 8px; margin: 24px 0; }
    input[type=email] { flex: 1; padding: 10px 12px; border: 1px solid #ccc; border-radius: 6px; }
    button { padding: 10px 18px; border: none; border-radius: 6px;
             background: #2563eb; color: #fff; cursor: pointer; }
    #result { min-height: 1.4em; }
    .muted { color: #666; font-size: 0.9em; }
  </style>
</head>
<body>
  <h1>Slotwatch</h1>
  <p>Get an email the moment an 18+ vaccination slot opens up in a watched
     area. Alerts also go out on our Telegram channel and Twitter feed.</p>
  <form id="subscribe-form">
    <input type="email" id="email" placeholder="you@example.com" required>
    <button type="submit">Notify me</button>
  </form>
  <p id="result"></p>
  <p class="muted">Every alert email carries a one-click unsubscribe link.</p>
  <script>
    document.getElementById("subscribe-form").addEventListener("submit", async (e) => {
      e.preventDefault();
      const result = document.getElementById("result");
      const resp = await fetch("/email", {
        method: "POST",
        headers: { "Content-Type": "application/json" },
        body: JSON.stringify({ email: document.getElementById("email").value }),
      });
      result.textContent = resp.ok
        ? "Subscribed. Watch your inbox."
        : "That email address did not work. Please check it and try again.";
    });
  </script>
</body>
</html>
`))

// unsubscribeTmpl is the confirmation page served at GET /unsubscribe.
// The email and hash query parameters are forwarded to the DELETE call.
var unsubscribeTmpl = template.Must(template.New("unsubscribe").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Unsubscribe — Slotwatch</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
           max-width: 560px; margin: 60px auto; padding: 0 20px; color: #1a1a2e; }
    button { padding: 10px 18px; border: none; border-radius: 6px;
             background: #dc2626; color: #fff; cursor: pointer; }
  </style>
</head>
<body>
  <h1>Unsubscribe</h1>
  <p>Stop receiving vaccine slot alerts for <strong>{{.Email}}</strong>?</p>
  <button id="confirm">Yes, unsubscribe me</button>
  <p id="result"></p>
  <script>
    document.getElementById("confirm").addEventListener("click", async () => {
      const result = document.getElementById("result");
      const resp = await fetch("/unsubscribe", {
        method: "DELETE",
        headers: { "Content-Type": "application/json" },
        body: JSON.stringify({ email: {{.Email}}, hash: {{.Hash}} }),
      });
      result.textContent = resp.ok
        ? "You have been unsubscribed."
        : "This unsubscribe link is invalid or already used.";
    });
  </script>
</body>
</html>
`))

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = landingTmpl.Execute(w, nil)
}

func (s *Server) handleUnsubscribePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = unsubscribeTmpl.Execute(w, struct {
		Email, Hash string
	}{
		Email: r.URL.Query().Get("email"),
		Hash:  r.URL.Query().Get("hash"),
	})
}
