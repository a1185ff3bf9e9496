package views

import (
	"strconv"

	"github.com/a-h/templ"
)

func (d *doc) adminOpen(site SiteConfig, title string) {
	d.open(site, PageMeta{Title: title + " | " + site.Name, Robots: "noindex, nofollow"})
	d.raw("<body>\n<main class=\"admin\">\n<h1>")
	d.text(title)
	d.raw("</h1>\n")
}

func (d *doc) csrfField(token string) {
	d.raw(`<input type="hidden" name="_csrf"`)
	d.attr("value", token)
	d.raw(">\n")
}

// AdminLogin is the password form.
func AdminLogin(site SiteConfig, showError bool, csrf string) templ.Component {
	return component(func(d *doc) {
		d.adminOpen(site, "Admin login")
		if showError {
			d.raw(`<p class="error">Invalid password.</p>`, "\n")
		}
		d.raw(`<form method="post" action="/admin/login/">`, "\n")
		d.csrfField(csrf)
		d.raw(`<label>Password <input type="password" name="password" autocomplete="current-password" required></label>`, "\n")
		d.raw(`<button type="submit">Sign in</button>`, "\n</form>\n</main>\n</body>\n")
		d.close()
	})
}

// AdminDashboard lists the cache purge actions and links to crawler stats.
func AdminDashboard(site SiteConfig, msg, csrf string, crawlerLog bool) templ.Component {
	return component(func(d *doc) {
		d.adminOpen(site, "Admin")
		if msg != "" {
			d.raw(`<p class="flash">`)
			d.text(msg)
			d.raw("</p>\n")
		}

		d.raw("<section>\n<h2>Cache</h2>\n")
		for _, p := range []struct{ label, prefix string }{
			{"Purge everything", ""},
			{"Purge pages", "page"},
			{"Purge API data", "data"},
		} {
			d.raw(`<form method="post" action="/admin/cache/purge/">`, "\n")
			d.csrfField(csrf)
			d.raw(`<input type="hidden" name="prefix"`)
			d.attr("value", p.prefix)
			d.raw(">\n<button type=\"submit\">")
			d.text(p.label)
			d.raw("</button>\n</form>\n")
		}
		d.raw("</section>\n")

		if crawlerLog {
			d.raw("<section>\n<h2>Crawlers</h2>\n<ul>\n")
			for _, days := range []int{1, 7, 30} {
				d.raw("<li>")
				d.anchor("/admin/crawlers/?days="+strconv.Itoa(days), "Last "+strconv.Itoa(days)+" days")
				d.raw("</li>\n")
			}
			d.raw("</ul>\n</section>\n")
		}

		d.raw(`<form method="post" action="/admin/logout/">`, "\n")
		d.csrfField(csrf)
		d.raw(`<button type="submit">Sign out</button>`, "\n</form>\n</main>\n</body>\n")
		d.close()
	})
}
