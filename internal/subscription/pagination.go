package subscription

import "fmt"

// Links is the `_links` object accompanying a Page in the LIST response,
// giving clients `prev`/`next` hrefs without them having to reconstruct
// query strings themselves.
type Links struct {
	Prev *Link `json:"prev,omitempty"`
	Next *Link `json:"next,omitempty"`
}

// Link is a single HATEOAS-style navigation link.
type Link struct {
	Href string `json:"href"`
}

// BuildLinks computes prev/next links for a page, given the filter that
// produced it and the basePath the listing endpoint is mounted at.
func BuildLinks(basePath string, filter ListFilter, totalCount int) Links {
	var links Links
	if filter.Offset > 0 {
		prevOffset := filter.Offset - filter.Limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		links.Prev = &Link{Href: hrefFor(basePath, filter, prevOffset)}
	}
	if filter.Offset+filter.Limit < totalCount {
		links.Next = &Link{Href: hrefFor(basePath, filter, filter.Offset+filter.Limit)}
	}
	return links
}

func hrefFor(basePath string, filter ListFilter, offset int) string {
	href := fmt.Sprintf("%s?offset=%d&limit=%d", basePath, offset, filter.Limit)
	if filter.OwningApplication != "" {
		href += "&owning_application=" + filter.OwningApplication
	}
	for _, et := range filter.EventTypes {
		href += "&event_type=" + et
	}
	return href
}
