package handlers

import (
	"net/http"

	"github.com/Lazitesema/cashora-landing-haven/internal/middleware"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/routes"
)

type link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type homeView struct {
	Badge    string    `json:"badge"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Actions  []link    `json:"actions"`
	Heading  string    `json:"features_heading"`
	Tagline  string    `json:"features_tagline"`
	Features []feature `json:"features"`
}

var home = homeView{
	Badge:    "Transform Your Financial Services",
	Title:    "Streamline Your Financial Operations with Cashora",
	Subtitle: "Experience the future of financial management. Automate your workflows, gain valuable insights, and scale your operations effortlessly.",
	Actions: []link{
		{Label: "Get Started", Href: routes.SignUp},
		{Label: "Sign In", Href: routes.SignIn},
	},
	Heading: "Why Choose Cashora",
	Tagline: "Experience the power of modern financial technology",
	Features: []feature{
		{Name: "Smart Financial Management", Description: "Utilize advanced algorithms to optimize your financial operations and improve efficiency."},
		{Name: "Secure Transactions", Description: "Enterprise-grade security measures to protect your financial data and transactions."},
		{Name: "Business Integration", Description: "Seamlessly integrate with your existing business systems and workflows."},
		{Name: "Personalized Experience", Description: "Tailored solutions that adapt to your specific business needs and requirements."},
	},
}

type statusView struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  link   `json:"action"`
}

type dashboardView struct {
	Name             string `json:"name"`
	Balance          string `json:"balance"`
	TotalDeposits    string `json:"total_deposits"`
	TotalWithdrawals string `json:"total_withdrawals"`
	PendingRequests  int    `json:"pending_requests"`
	Links            []link `json:"links"`
}

// PagesHandler serves the marketing, status, dashboard and not-found views.
type PagesHandler struct {
	viewer
}

// NewPagesHandler constructs the handler.
func NewPagesHandler(cookies middleware.Cookies) *PagesHandler {
	return &PagesHandler{viewer: viewer{cookies: cookies}}
}

// Home is the landing page.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "Cashora", home)
}

// Pending explains that the account awaits approval.
func (h *PagesHandler) Pending(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "Account pending", statusView{
		Title:   "Account Pending Approval",
		Message: "Your account is pending approval. You will be able to sign in once an administrator approves it.",
		Action:  link{Label: "Back to Sign In", Href: routes.SignIn},
	})
}

// Rejected explains that the account was declined.
func (h *PagesHandler) Rejected(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "Account rejected", statusView{
		Title:   "Account Rejected",
		Message: "Your account has been rejected. Please contact support for more information.",
		Action:  link{Label: "Back to Home", Href: routes.Home},
	})
}

// Dashboard is the user landing page. Derived figures are placeholders.
func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	client, ok := mustClient(w, r)
	if !ok {
		return
	}
	view := dashboardView{
		Balance:          "$0.00",
		TotalDeposits:    "$0.00",
		TotalWithdrawals: "$0.00",
		Links: []link{
			{Label: "Dashboard", Href: routes.Dashboard},
			{Label: "Deposit", Href: routes.Dashboard + "/deposit"},
			{Label: "Send", Href: routes.Dashboard + "/send"},
			{Label: "Withdraw", Href: routes.Dashboard + "/withdraw"},
		},
	}
	if p := client.Sync.State().Profile; p != nil {
		view.Name = p.FullName()
		view.Balance = money(p)
	}
	h.render(w, r, http.StatusOK, "Dashboard", view)
}

// NotFound is the catch-all view, also used for the unbuilt stubs.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "Oops! Page not found", map[string]any{
		"path":   r.URL.Path,
		"action": link{Label: "Return to Home", Href: routes.Home},
	})
}

func money(p *models.Profile) string {
	return "$" + p.Balance.StringFixed(2)
}
