package heuristic

// Script is the in-page extraction function. The renderer evaluates it with
// the JSON form of Rules as its only argument; it returns a plain object
// shaped like models.Record, so no DOM reference ever leaves the page.
//
// Keep the semantics in step with Engine.Evaluate.
const Script = `(rules) => {
	const clean = (s) => (s || '').trim();

	const query = (sel) => {
		try { return document.querySelector(sel); } catch (e) { return null; }
	};
	const queryAll = (sel) => {
		try { return Array.from(document.querySelectorAll(sel)); } catch (e) { return []; }
	};

	const firstText = (selectors) => {
		for (const sel of selectors || []) {
			const el = query(sel);
			const text = clean(el && el.textContent);
			if (text) return text;
		}
		return '';
	};

	const resolve = (v) => {
		try { return new URL(v, document.baseURI).href; } catch (e) { return v; }
	};
	const source = (img) => {
		for (const attr of rules.lazyAttrs || []) {
			const v = clean(img.getAttribute(attr));
			if (v) return resolve(v);
		}
		const src = clean(img.getAttribute('src'));
		return src ? resolve(src) : '';
	};
	const markers = rules.imageMarkers || [];
	const hasMarker = (src) => markers.length === 0 || markers.some((m) => src.includes(m));

	const title = firstText(rules.title);

	let content = firstText(rules.content);
	if (!content) {
		content = queryAll(rules.paragraph || 'p')
			.map((p) => clean(p.textContent))
			.filter((t) => [...t].length > rules.minParagraphLen)
			.join('\n');
	}

	const images = queryAll(rules.image || 'img')
		.map(source)
		.filter((src) => src && hasMarker(src))
		.slice(0, rules.maxImages);

	const author = firstText(rules.author);

	let authorAvatar = '';
	for (const sel of rules.avatar || []) {
		const img = query(sel);
		if (img) {
			authorAvatar = source(img);
			if (authorAvatar) break;
		}
	}

	let likes = 0;
	for (const sel of rules.likes || []) {
		const el = query(sel);
		const m = el && (el.textContent || '').match(/\d+/);
		if (m) {
			likes = Math.min(parseInt(m[0], 10), Number.MAX_SAFE_INTEGER);
			break;
		}
	}

	const tagSelector = (rules.tags || []).join(', ');
	const tags = tagSelector
		? queryAll(tagSelector).map((el) => clean(el.textContent)).filter(Boolean).slice(0, rules.maxTags)
		: [];

	return {
		title: title || rules.defaultTitle,
		content: content || '',
		images: images,
		author: author || rules.defaultAuthor,
		authorAvatar: authorAvatar,
		likes: likes,
		tags: tags,
	};
}`
