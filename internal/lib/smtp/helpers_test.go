package smtp

import "github.com/magabrotheeeer/lms-server/internal/config"

func configWith(user, from string) config.SMTP {
	return config.SMTP{SMTPHost: "localhost", SMTPPort: "587", SMTPUser: user, SMTPFrom: from}
}
