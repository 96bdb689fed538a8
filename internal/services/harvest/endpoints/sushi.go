// Package endpoints implements the protocol clients that retrieve COUNTER
// reports, one implementation per registered service type
package endpoints

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	perr "harvester/internal/platform/errors"
	"harvester/internal/platform/logger"
)

const (
	defaultTimeout = 10 * time.Second
	defaultUA      = "erm-usage-harvester"

	// report envelopes are bounded; anything larger is not a report
	maxBody = 16 << 20
)

// Options tunes the outbound HTTP behavior of all endpoint implementations
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	return o
}

// sushiEnvelope is the COUNTER 4 SUSHI report response wrapper.
// Element matching is by local name, namespaces vary between services
type sushiEnvelope struct {
	XMLName    xml.Name
	Exceptions []sushiException `xml:"Exception"`
	Report     *sushiReportSet  `xml:"Report"`
}

// sushiException is an application-level exception encoded in the payload.
// HelpURL is parsed but deliberately kept out of error messages
type sushiException struct {
	Number   int    `xml:"Number"`
	Severity string `xml:"Severity"`
	Message  string `xml:"Message"`
	HelpURL  string `xml:"HelpUrl"`
}

type sushiReportSet struct {
	Reports []counterReport `xml:"Report"`
}

// counterReport is the COUNTER 4 report element, normalized to JSON for storage
type counterReport struct {
	ID        string            `xml:"ID,attr" json:"id,omitempty"`
	Version   string            `xml:"Version,attr" json:"version,omitempty"`
	Name      string            `xml:"Name,attr" json:"name,omitempty"`
	Title     string            `xml:"Title,attr" json:"title,omitempty"`
	Created   string            `xml:"Created,attr" json:"created,omitempty"`
	Vendor    counterVendor     `xml:"Vendor" json:"vendor"`
	Customers []counterCustomer `xml:"Customer" json:"customer,omitempty"`
}

type counterVendor struct {
	ID   string `xml:"ID" json:"id,omitempty"`
	Name string `xml:"Name" json:"name,omitempty"`
}

type counterCustomer struct {
	ID          string        `xml:"ID" json:"id,omitempty"`
	Name        string        `xml:"Name" json:"name,omitempty"`
	ReportItems []counterItem `xml:"ReportItems" json:"reportItems,omitempty"`
}

type counterItem struct {
	Identifiers  []itemIdentifier  `xml:"ItemIdentifier" json:"itemIdentifier,omitempty"`
	Platform     string            `xml:"ItemPlatform" json:"itemPlatform,omitempty"`
	Publisher    string            `xml:"ItemPublisher" json:"itemPublisher,omitempty"`
	Name         string            `xml:"ItemName" json:"itemName,omitempty"`
	DataType     string            `xml:"ItemDataType" json:"itemDataType,omitempty"`
	Performances []itemPerformance `xml:"ItemPerformance" json:"itemPerformance,omitempty"`
}

type itemIdentifier struct {
	Type  string `xml:"Type" json:"type,omitempty"`
	Value string `xml:"Value" json:"value,omitempty"`
}

type itemPerformance struct {
	Period   metricPeriod  `xml:"Period" json:"period"`
	Category string        `xml:"Category" json:"category,omitempty"`
	Metrics  []metricCount `xml:"Instance" json:"instance,omitempty"`
}

type metricPeriod struct {
	Begin string `xml:"Begin" json:"begin"`
	End   string `xml:"End" json:"end"`
}

type metricCount struct {
	MetricType string `xml:"MetricType" json:"metricType"`
	Count      int64  `xml:"Count" json:"count"`
}

// fetchReport GETs url and normalizes the SUSHI envelope into the report
// JSON payload. Failure classes: transport, non-2xx status, undecodable
// envelope, domain exception encoded in a decodable envelope
func fetchReport(ctx context.Context, hc *http.Client, ua, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "building report request")
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/xml, application/xml")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, perr.Transportf(err, "failed retrieving report")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Named("endpoints").Error().Err(cerr).Msg("close body failed")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, perr.Statusf(resp.StatusCode, "received status code %d fetching report", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, perr.Transportf(err, "failed reading report response")
	}
	return normalize(b)
}

// normalize decodes the envelope and re-encodes the report element as JSON
func normalize(b []byte) (json.RawMessage, error) {
	var env sushiEnvelope
	if err := xml.Unmarshal(b, &env); err != nil {
		return nil, perr.DecodeWrap(err, "error decoding report response")
	}

	if msg := exceptionMessage(env.Exceptions); msg != "" {
		return nil, perr.DomainExceptionf("%s", msg)
	}
	if env.Report == nil || len(env.Report.Reports) == 0 {
		return nil, perr.Decodef("error decoding report response: no report element")
	}

	out, err := json.Marshal(env.Report.Reports[0])
	if err != nil {
		return nil, perr.DecodeWrap(err, "error encoding report payload")
	}
	return out, nil
}

// exceptionMessage renders "<number>, <message>" per exception. The
// help-url metadata in the raw payload never reaches the message
func exceptionMessage(excs []sushiException) string {
	if len(excs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(excs))
	for _, e := range excs {
		parts = append(parts, fmt.Sprintf("%d, %s", e.Number, e.Message))
	}
	return strings.Join(parts, "; ")
}
