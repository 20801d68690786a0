// Package routes names the portal's client-visible paths.
package routes

const (
	Home      = "/"
	SignIn    = "/signin"
	SignUp    = "/signup"
	SignOut   = "/signout"
	Pending   = "/pending"
	Rejected  = "/rejected"
	Dashboard = "/dashboard"
	Admin     = "/admin"
	Users     = "/admin/users"

	DepositRequests    = "/admin/deposit-requests"
	WithdrawalRequests = "/admin/withdrawal-requests"
	SendingRequests    = "/admin/sending-requests"
)
