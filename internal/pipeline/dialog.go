package pipeline

import "context"

// DismissStaySignedIn отвечает "Нет" на вопрос "Оставаться в системе?", если он есть.
func (p *Pipeline) DismissStaySignedIn(ctx context.Context, a *Authenticated) {
	res, err := a.exec.WaitFor(ctx, p.opts.Selectors.StaySignedInDecline, p.opts.StaySignedInTimeout)
	if err != nil {
		p.logger.Warn("Stay signed-in lookup failed, continuing", "error", err.Error())
		return
	}
	if !res.Found() {
		p.logger.Info("No \"Stay signed-in\" prompt found, continuing")
		return
	}

	if err := a.exec.Act(ctx, res.Element, Click, p.opts.NavigationTimeout); err != nil {
		p.logger.Warn("Failed to decline stay signed-in", "error", err.Error())
		return
	}
	p.logger.Info("Declined stay signed-in")
}
