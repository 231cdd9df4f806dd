package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophauth/internal/api"
)

func printAccount(w io.Writer, acc *api.Account) {
	if acc == nil {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(k, v string) { fmt.Fprintf(tw, "%s\t%s\n", k, v) }
	opt := func(k string, v *string) {
		if v != nil {
			row(k, *v)
		}
	}

	row("No", fmt.Sprint(acc.No))
	row("Email", acc.Email)
	row("Name", acc.Name)
	row("Role", acc.Role)
	row("Enabled", acc.UseYn)
	row("Deleted", acc.DelYn)
	opt("Profile image", acc.ProfileImage)
	opt("Bio", acc.Bio)
	opt("Last sign-in", acc.LastLoginAt)
	opt("Password changed", acc.LastPasswordChangeAt)
	row("Created", acc.CreatedAt)
	row("Updated", acc.UpdatedAt)

	_ = tw.Flush()
}
