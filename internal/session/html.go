package session

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

// The fixed DOM locations the bootstrap scrapes. These are part of the
// portal's rendered markup, not any documented API, and drift here
// surfaces as fatal bootstrap errors rather than wrong data.
const (
	csrfFieldXPath   = `//input[@name='csrf_token']`
	sessionDivXPath  = `//div[@id='session-id']`
	csrfValueAttr    = "value"
	maxResourceLinks = 16
)

// csrfFromLoginPage pulls the CSRF token out of the login form's hidden
// field. Empty string when the field is absent; the caller decides that
// this is fatal.
func csrfFromLoginPage(page []byte) string {
	doc, err := htmlquery.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	node := htmlquery.FindOne(doc, csrfFieldXPath)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.SelectAttr(node, csrfValueAttr))
}

// sessionIDFromPortal pulls the per-login session UUID out of the
// portal page's hidden div.
func sessionIDFromPortal(page []byte) string {
	doc, err := htmlquery.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	node := htmlquery.FindOne(doc, sessionDivXPath)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(node))
}

// resourceLinksFromPage collects same-origin script and stylesheet URLs
// for the best-effort bootstrap preload. The browser fetches these after
// the portal page, and fetching them too keeps the traffic shape
// plausible. Capped so a pathological page cannot turn the preload into
// a crawl.
func resourceLinksFromPage(page []byte, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil
	}

	var links []string
	seen := map[string]bool{}
	add := func(ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "//") {
			return
		}
		if strings.HasPrefix(ref, "http") {
			if !strings.HasPrefix(ref, baseURL+"/") {
				return
			}
			ref = strings.TrimPrefix(ref, baseURL)
		}
		if !strings.HasPrefix(ref, "/") {
			ref = "/" + ref
		}
		full := baseURL + ref
		if !seen[full] && len(links) < maxResourceLinks {
			seen[full] = true
			links = append(links, full)
		}
	}

	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			add(src)
		}
	})
	doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			add(href)
		}
	})
	return links
}
