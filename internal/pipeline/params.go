package pipeline

import (
	"context"
	"strconv"

	"powerbi-capture/internal/browser"
)

// setFieldValueJS пишет значение прямо в поле и шлёт input/change, чтобы
// фреймворк отчёта заметил изменение. Возвращает, какая ветка сработала.
const setFieldValueJS = `function (val) {
	const fire = (el) => {
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
	};
	if (this.tagName === 'INPUT' || this.tagName === 'TEXTAREA') {
		this.value = val;
		fire(this);
		return 'input';
	}
	const nested = this.querySelector('input');
	if (nested) {
		nested.value = val;
		fire(nested);
		return 'nested';
	}
	this.innerText = val;
	return 'text';
}`

// id слайсеров начинаются с цифры, "#id" для них невалиден.
func dateFieldLocator(id string) browser.Locator {
	return browser.CSS("[id=" + strconv.Quote(id) + "]")
}

// InjectDates ставит вчерашнюю дату в оба поля дат и ждёт перерисовки визуалов.
// Возвращает записанную дату.
func (p *Pipeline) InjectDates(ctx context.Context, a *Authenticated) string {
	date := TargetDate(p.opts.Now())
	p.logger.Info("Setting date fields", "date", date, "fields", len(p.opts.Selectors.DateFieldIDs))

	for _, id := range p.opts.Selectors.DateFieldIDs {
		if ctx.Err() != nil {
			return date
		}
		p.setDateField(ctx, a, id, date)
	}

	if err := p.opts.VisualsSettle.Settle(ctx); err != nil {
		p.logger.Debug("Visuals settle interrupted", "error", err.Error())
	}
	return date
}

func (p *Pipeline) setDateField(ctx context.Context, a *Authenticated, id, date string) {
	res, err := a.exec.WaitFor(ctx, []browser.Locator{dateFieldLocator(id)}, p.opts.DateFieldTimeout)
	if err != nil {
		p.logger.Warn("Could not set date", "field", id, "error", err.Error())
		return
	}
	if !res.Found() {
		p.logger.Warn("Could not set date: field not visible", "field", id, "timeout", p.opts.DateFieldTimeout.String())
		return
	}

	mode, err := res.Element.Eval(ctx, setFieldValueJS, date)
	if err != nil {
		p.logger.Warn("Could not set date", "field", id, "error", err.Error())
		return
	}
	p.logger.Info("Date set", "field", id, "mode", mode)

	if err := p.opts.FieldSettle.Settle(ctx); err != nil {
		p.logger.Debug("Field settle interrupted", "field", id, "error", err.Error())
	}
}
